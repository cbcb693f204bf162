package dto

// UpdateProfileRequest represents the body of PUT /users/profile
type UpdateProfileRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=50" example:"Ada Lovelace"`
	Username string  `json:"username" validate:"required,username" example:"ada"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=160" example:"Mathematician"`
	Theme    string  `json:"theme" validate:"required,theme" example:"dark"`
}

// DashboardResponse is the owner's editing view
type DashboardResponse struct {
	User  UserDTO   `json:"user"`
	Links []LinkDTO `json:"links"`
}

// AvatarResponse returns the new avatar url
type AvatarResponse struct {
	Image string `json:"image" example:"https://linkhub.example/static/avatars/1-uuid.png"`
}

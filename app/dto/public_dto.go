package dto

// PublicUserDTO is the part of a user shown on the public page
type PublicUserDTO struct {
	ID       uint    `json:"id" example:"1"`
	Name     string  `json:"name" example:"Ada Lovelace"`
	Username string  `json:"username" example:"ada"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
	Theme    string  `json:"theme" example:"default"`
}

// PublicLinkDTO is a visible link on a public page
type PublicLinkDTO struct {
	ID          uint    `json:"id" example:"1"`
	Title       string  `json:"title" example:"My GitHub"`
	URL         string  `json:"url" example:"https://github.com/ada"`
	Description *string `json:"description,omitempty"`
	Platform    string  `json:"platform" example:"github"`
	Icon        string  `json:"icon" example:"🐙"`
	Position    int     `json:"position" example:"1"`
}

// ThemeStyleDTO carries the style classes of the profile theme
type ThemeStyleDTO struct {
	Background string `json:"background"`
	Card       string `json:"card"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
	Border     string `json:"border"`
}

// PublicProfileResponse is the payload of GET /public/profile/:username
type PublicProfileResponse struct {
	User       PublicUserDTO   `json:"user"`
	Links      []PublicLinkDTO `json:"links"`
	ThemeStyle ThemeStyleDTO   `json:"theme_style"`
	ProfileURL string          `json:"profile_url" example:"https://linkhub.example/ada"`
}

// UsernameAvailabilityResponse answers GET /public/username/:username/available
type UsernameAvailabilityResponse struct {
	Username  string `json:"username" example:"ada"`
	Available bool   `json:"available" example:"true"`
	Reason    string `json:"reason,omitempty" example:"taken"`
}

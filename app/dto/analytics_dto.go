package dto

// TopLinkDTO is one entry of a top-links ranking
type TopLinkDTO struct {
	ID       uint   `json:"id" example:"1"`
	Title    string `json:"title" example:"My GitHub"`
	URL      string `json:"url" example:"https://github.com/ada"`
	Platform string `json:"platform" example:"github"`
	Clicks   int64  `json:"clicks" example:"42"`
}

// LabelCountDTO is one bucket of a categorical breakdown
type LabelCountDTO struct {
	Label  string `json:"label" example:"Chrome 120.0.0.0"`
	Clicks int64  `json:"clicks" example:"10"`
}

// DailyClicksDTO is the click count of one local calendar day
type DailyClicksDTO struct {
	Date   string `json:"date" example:"2024-01-15"`
	Clicks int64  `json:"clicks" example:"3"`
}

// AnalyticsOverviewResponse is the overview aggregate
type AnalyticsOverviewResponse struct {
	TotalClicks     int64        `json:"total_clicks" example:"120"`
	ActiveLinks     int64        `json:"active_links" example:"4"`
	ClicksToday     int64        `json:"clicks_today" example:"3"`
	ClicksThisWeek  int64        `json:"clicks_this_week" example:"21"`
	ClicksThisMonth int64        `json:"clicks_this_month" example:"80"`
	PageViewsToday  int64        `json:"page_views_today" example:"12"`
	TopLinks        []TopLinkDTO `json:"top_links"`
}

// AnalyticsDetailedResponse extends the overview with trends and breakdowns
type AnalyticsDetailedResponse struct {
	AnalyticsOverviewResponse
	ClicksLastMonth int64            `json:"clicks_last_month" example:"60"`
	GrowthPercent   int64            `json:"growth_percent" example:"33"`
	UniqueVisitors  int64            `json:"unique_visitors" example:"57"`
	Daily           []DailyClicksDTO `json:"daily"`
	Devices         []LabelCountDTO  `json:"devices"`
	Browsers        []LabelCountDTO  `json:"browsers"`
	Countries       []LabelCountDTO  `json:"countries"`
}

// RecordPageViewRequest is the page-view beacon sent by a public profile page
type RecordPageViewRequest struct {
	UserID   uint    `json:"user_id" validate:"required" example:"1"`
	Referrer *string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
}

// RecordPageViewResponse returns today's page views for the profile
type RecordPageViewResponse struct {
	PageViewsToday int64 `json:"page_views_today" example:"12"`
}

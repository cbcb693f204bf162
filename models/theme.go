package models

// Theme selects the style bundle of a public page
type Theme string

const (
	ThemeDefault  Theme = "default"
	ThemeDark     Theme = "dark"
	ThemeMinimal  Theme = "minimal"
	ThemeColorful Theme = "colorful"
)

// ThemeStyle holds the CSS class bundle a client applies to a public page
type ThemeStyle struct {
	Background string `json:"background"`
	Card       string `json:"card"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
	Border     string `json:"border"`
}

var themeStyles = map[Theme]ThemeStyle{
	ThemeDefault: {
		Background: "bg-gradient-to-br from-blue-50 via-white to-purple-50",
		Card:       "bg-white/80 backdrop-blur-sm",
		Text:       "text-gray-900",
		Accent:     "bg-blue-600 hover:bg-blue-700",
		Border:     "border-gray-200/50",
	},
	ThemeDark: {
		Background: "bg-gradient-to-br from-gray-900 via-black to-gray-800",
		Card:       "bg-gray-800/80 backdrop-blur-sm",
		Text:       "text-white",
		Accent:     "bg-purple-600 hover:bg-purple-700",
		Border:     "border-gray-700/50",
	},
	ThemeMinimal: {
		Background: "bg-gray-50",
		Card:       "bg-white",
		Text:       "text-gray-900",
		Accent:     "bg-gray-900 hover:bg-gray-800",
		Border:     "border-gray-200",
	},
	ThemeColorful: {
		Background: "bg-gradient-to-br from-pink-100 via-purple-50 to-indigo-100 animate-gradient",
		Card:       "bg-white/90 backdrop-blur-sm",
		Text:       "text-gray-900",
		Accent:     "bg-gradient-to-r from-pink-500 to-purple-600 hover:from-pink-600 hover:to-purple-700",
		Border:     "border-white/50",
	},
}

func (t Theme) IsValid() bool {
	_, ok := themeStyles[t]
	return ok
}

// Style returns the bundle for t, falling back to the default theme
func (t Theme) Style() ThemeStyle {
	if s, ok := themeStyles[t]; ok {
		return s
	}
	return themeStyles[ThemeDefault]
}

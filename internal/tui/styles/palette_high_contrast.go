package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Message: MessageColors{
		Own:    "87",
		Other:  "225",
		Unread: "226",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "51",
		Badge:        "196",
		Error:        "196",
	},
	Borders: BorderColors{
		ActivePane:   "231",
		InactivePane: "250",
	},
}

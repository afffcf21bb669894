package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Own:    "81",
		Other:  "147",
		Unread: "220",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
		Badge:        "203",
		Error:        "203",
	},
	Borders: BorderColors{
		ActivePane:   "75",
		InactivePane: "240",
	},
}

package styles

// Preset is a named palette.
type Preset struct {
	Name        string
	Description string
	Colors      map[ColorToken]string
}

// DefaultPreset is the dark palette used when no preset is configured.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Muted colors for dark terminals",
	Colors: map[ColorToken]string{
		TokenLineAdd:       "#73F59F",
		TokenLineDelete:    "#FF8787",
		TokenLineContext:   "#BBBBBB",
		TokenLineNumber:    "#696969",
		TokenWordAdd:       "#1E5631",
		TokenWordDelete:    "#6B1F1F",
		TokenCursor:        "#54A0FF",
		TokenHeader:        "#CBA6F7",
		TokenChunkHeader:   "#89B4FA",
		TokenComment:       "#FECA57",
		TokenTextMuted:     "#777777",
		TokenStatusError:   "#FF8787",
		TokenStatusWarning: "#FECA57",
	},
}

// Presets holds the built-in palettes by name.
var Presets = map[string]Preset{
	"default": DefaultPreset,
	"high-contrast": {
		Name:        "high-contrast",
		Description: "Saturated colors for low-contrast displays",
		Colors: map[ColorToken]string{
			TokenLineAdd:       "#00FF00",
			TokenLineDelete:    "#FF0000",
			TokenLineContext:   "#FFFFFF",
			TokenLineNumber:    "#AAAAAA",
			TokenWordAdd:       "#006400",
			TokenWordDelete:    "#8B0000",
			TokenCursor:        "#00FFFF",
			TokenHeader:        "#FFFF00",
			TokenChunkHeader:   "#00BFFF",
			TokenComment:       "#FFA500",
			TokenTextMuted:     "#AAAAAA",
			TokenStatusError:   "#FF0000",
			TokenStatusWarning: "#FFA500",
		},
	},
}

package styles

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemeConfig mirrors config.ThemeConfig to avoid circular imports.
type ThemeConfig struct {
	Preset string
	Colors map[string]string
}

// ApplyTheme applies a complete theme configuration.
// Order of application:
// 1. Start with default colors
// 2. Apply preset (if specified)
// 3. Apply individual color overrides
// 4. Rebuild all Style objects
func ApplyTheme(cfg ThemeConfig) error {
	colors := maps.Clone(DefaultPreset.Colors)

	if cfg.Preset != "" && cfg.Preset != DefaultPreset.Name {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset: %s", cfg.Preset)
		}
		maps.Copy(colors, preset.Colors)
	}

	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		colors[token] = value
	}

	applyColors(colors)
	rebuildStyles()
	return nil
}

func applyColors(colors map[ColorToken]string) {
	// Configured colors apply to both light and dark terminals.
	makeColor := func(hex string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}

	targets := map[ColorToken]*lipgloss.AdaptiveColor{
		TokenLineAdd:       &LineAddColor,
		TokenLineDelete:    &LineDeleteColor,
		TokenLineContext:   &LineContextColor,
		TokenLineNumber:    &LineNumberColor,
		TokenWordAdd:       &WordAddColor,
		TokenWordDelete:    &WordDeleteColor,
		TokenCursor:        &CursorColor,
		TokenHeader:        &HeaderColor,
		TokenChunkHeader:   &ChunkHeaderColor,
		TokenComment:       &CommentColor,
		TokenTextMuted:     &TextMutedColor,
		TokenStatusError:   &StatusErrorColor,
		TokenStatusWarning: &StatusWarningColor,
	}
	for token, dst := range targets {
		if c, ok := colors[token]; ok {
			*dst = makeColor(c)
		}
	}
}

// rebuildStyles recreates all Style objects with updated colors.
// lipgloss.Style objects capture colors at creation time.
func rebuildStyles() {
	LineAddStyle = lipgloss.NewStyle().Foreground(LineAddColor)
	LineDeleteStyle = lipgloss.NewStyle().Foreground(LineDeleteColor)
	LineContextStyle = lipgloss.NewStyle().Foreground(LineContextColor)
	LineNumberStyle = lipgloss.NewStyle().Foreground(LineNumberColor)

	WordAddStyle = lipgloss.NewStyle().Foreground(LineAddColor).Background(WordAddColor)
	WordDeleteStyle = lipgloss.NewStyle().Foreground(LineDeleteColor).Background(WordDeleteColor)

	CursorGutterStyle = lipgloss.NewStyle().Foreground(CursorColor).Bold(true)
	FileHeaderStyle = lipgloss.NewStyle().Foreground(HeaderColor).Bold(true)
	ChunkHeaderStyle = lipgloss.NewStyle().Foreground(ChunkHeaderColor)
	CommentStyle = lipgloss.NewStyle().Foreground(CommentColor).Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(TextMutedColor).
		Padding(0, 1)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(StatusErrorColor).
		Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
}

func isValidToken(token ColorToken) bool {
	return slices.Contains(AllTokens(), token)
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}

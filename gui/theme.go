//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// appTheme pins the fyne variant to the user's theme setting instead of the
// desktop default. The dark variant mutes the stock palette to match the
// terminal frontend.
type appTheme struct {
	variant fyne.ThemeVariant
}

func newAppTheme(name string) *appTheme {
	if name == "light" {
		return &appTheme{variant: theme.VariantLight}
	}
	return &appTheme{variant: theme.VariantDark}
}

func (t *appTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if t.variant == theme.VariantDark {
		switch name {
		case theme.ColorNameBackground:
			return color.RGBA{18, 18, 18, 255}
		case theme.ColorNameForeground:
			return color.RGBA{200, 200, 200, 255}
		}
	}
	return theme.DefaultTheme().Color(name, t.variant)
}

func (t *appTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *appTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *appTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}

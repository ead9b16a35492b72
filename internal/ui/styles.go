package ui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Styles derives every style from one catppuccin flavour
type Styles struct {
	flavor catppuccin.Flavor
}

func NewStyles(themeName string) *Styles {
	return &Styles{flavor: flavorFromName(themeName)}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) color(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

// Panel is a bordered box. Focused panels get an accent border.
func (s *Styles) Panel(focused bool) lipgloss.Style {
	border := s.color(s.flavor.Surface1())
	if focused {
		border = s.color(s.flavor.Mauve())
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (s *Styles) Title() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Mauve()))
}

func (s *Styles) Header() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Teal()))
}

func (s *Styles) Item() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Text()))
}

func (s *Styles) SelectedItem() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Base())).
		Background(s.color(s.flavor.Lavender()))
}

func (s *Styles) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Overlay0()))
}

func (s *Styles) Mode() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Green()))
}

func (s *Styles) Error() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Red()))
}

func (s *Styles) Spinner() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Pink()))
}

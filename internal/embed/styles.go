// Package embed renders the public, frameable view of a roadmap.
package embed

import "github.com/charlesng35/roadboard/internal/models"

// Default colours applied when a roadmap leaves a style unset.
const (
	DefaultPrimaryColor    = "#3b82f6"
	DefaultBackgroundColor = "#ffffff"
	DefaultTextColor       = "#1f2937"
	DefaultBorderColor     = "#e5e7eb"
)

// ResolvedStyles holds concrete colours for every embed style slot.
type ResolvedStyles struct {
	PrimaryColor    string                   `json:"primaryColor"`
	BackgroundColor string                   `json:"backgroundColor"`
	TextColor       string                   `json:"textColor"`
	BorderColor     string                   `json:"borderColor"`
	StatusColors    map[models.Status]string `json:"statusColors"`
}

// Defaults returns the styles used when a roadmap sets no overrides.
func Defaults() ResolvedStyles {
	return Resolve(models.EmbedStyles{})
}

// Resolve fills every unset slot of styles with its default colour.
func Resolve(styles models.EmbedStyles) ResolvedStyles {
	resolved := ResolvedStyles{
		PrimaryColor:    fallback(styles.PrimaryColor, DefaultPrimaryColor),
		BackgroundColor: fallback(styles.BackgroundColor, DefaultBackgroundColor),
		TextColor:       fallback(styles.TextColor, DefaultTextColor),
		BorderColor:     fallback(styles.BorderColor, DefaultBorderColor),
		StatusColors:    make(map[models.Status]string, len(models.Statuses)),
	}
	for _, status := range models.Statuses {
		resolved.StatusColors[status] = fallback(styles.StatusColors.For(status), status.DefaultColor())
	}
	return resolved
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

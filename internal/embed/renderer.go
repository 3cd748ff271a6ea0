package embed

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/services"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

type statusSummary struct {
	Status models.Status
	Label  string
	Emoji  string
	Color  string
	Count  int
}

type column struct {
	statusSummary
	Features []services.EmbedFeature
}

type view struct {
	Name       string
	CreatedAt  string
	Total      int
	Styles     ResolvedStyles
	Overview   []statusSummary
	Columns    []column
}

// Renderer turns embed data into a standalone HTML document.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("roadmap.html.tmpl").Funcs(template.FuncMap{
		"date": func(t interface{ Format(string) string }) string { return t.Format("Jan 2, 2006") },
		"plural": func(n int, word string) string {
			if n == 1 {
				return fmt.Sprintf("%d %s", n, word)
			}
			return fmt.Sprintf("%d %ss", n, word)
		},
	}).ParseFS(templateFS, "templates/roadmap.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("embed renderer: parse template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the roadmap page. Statuses without features are left out of
// the overview; board columns are always present.
func (r *Renderer) Render(w io.Writer, data *services.EmbedData) error {
	if data == nil {
		return fmt.Errorf("embed renderer: no data")
	}

	styles := Resolve(data.EmbedStyles)
	v := view{
		Name:      data.Name,
		CreatedAt: data.CreatedAt.Format("Jan 2, 2006"),
		Total:     len(data.Features),
		Styles:    styles,
	}

	for _, status := range models.Statuses {
		col := column{statusSummary: statusSummary{
			Status: status,
			Label:  status.Label(),
			Emoji:  status.Emoji(),
			Color:  styles.StatusColors[status],
		}}
		for _, f := range data.Features {
			if f.Status == status {
				col.Features = append(col.Features, f)
			}
		}
		col.Count = len(col.Features)
		if col.Count > 0 {
			v.Overview = append(v.Overview, col.statusSummary)
		}
		v.Columns = append(v.Columns, col)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("embed renderer: execute: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

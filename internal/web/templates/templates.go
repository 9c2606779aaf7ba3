// Package templates holds the server-rendered pages of the onboarding flow.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
)

//go:embed *.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"percent": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64) + "%"
	},
	"inc": func(i int) int { return i + 1 },
}

var pages = template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "*.html"))

// Render executes the named page into w. The page is rendered into a buffer
// first so a template error never leaves a half-written response.
func Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Package templates holds the dashboard page and the fragments patched into
// it over SSE.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Render renders c to a string for SSE element patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"money": money,
	"one":   func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"day":   func(t time.Time) string { return t.Format(time.DateOnly) },
	"words": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

// view adapts an executed template to templ.Component.
func view(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.Execute(w, data)
	})
}

func money(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.Round(2).InexactFloat64(), 2)
}

var noticeTemplate = parse("notice", `<div id="{{.ID}}" class="notice">{{.Message}}</div>`)

// Notice renders a placeholder for a section that has nothing to show.
func Notice(id, message string) templ.Component {
	return view(noticeTemplate, struct{ ID, Message string }{id, message})
}

// Package render produces the HTML fragments shown in the popup results
// region. Every interpolated value goes through html/template escaping.
package render

import (
	"bytes"
	"html/template"

	"github.com/hyperifyio/goactions/internal/items"
)

// Fixed texts of the results region.
const (
	ProcessingText = "Processing..."
	EmptyText      = "No action items found."
	ErrorText      = "Could not extract action items. Make sure the local server is running."
)

// ErrorStyle is the inline style of the error paragraph.
const ErrorStyle = "color: #c0392b;"

var tableTmpl = template.Must(template.New("table").Parse(
	`<table><thead><tr><th>Action</th><th>Assignee</th><th>Deadline</th></tr></thead><tbody>` +
		`{{range .}}<tr><td>{{.Action}}</td><td>{{.Assignee}}</td><td>{{.Deadline}}</td></tr>{{end}}` +
		`</tbody></table>`))

// Processing is the placeholder shown while a request is outstanding.
func Processing() string {
	return template.HTMLEscapeString(ProcessingText)
}

// Empty is the message shown when the response carries no items.
func Empty() string {
	return template.HTMLEscapeString(EmptyText)
}

// Error is the styled paragraph shown for every failure kind.
func Error() string {
	return `<p style="` + ErrorStyle + `">` + template.HTMLEscapeString(ErrorText) + `</p>`
}

// Table renders one row per item, in order. An empty list yields the empty
// state instead of a table.
func Table(list []items.ActionItem) (string, error) {
	if len(list) == 0 {
		return Empty(), nil
	}
	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, list); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Result picks the fragment for a successful response.
func Result(resp items.ExtractionResponse) (string, error) {
	return Table(resp.Items)
}

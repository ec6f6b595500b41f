package popup

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

var pageTmpl = template.Must(template.New("popup").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; width: 420px; margin: 12px; }
textarea { width: 100%; height: 140px; }
table { border-collapse: collapse; width: 100%; margin-top: 8px; }
th, td { border: 1px solid #ccc; padding: 4px; text-align: left; }
</style>
</head>
<body>
<h3>{{.Title}}</h3>
<form method="post" action="/">
<textarea id="notes" name="notes" placeholder="Paste meeting notes here">{{.Notes}}</textarea>
<button id="extract" type="submit">Extract action items</button>
</form>
<div id="results">{{.Results}}</div>
</body>
</html>
`))

type pageData struct {
	Title   string
	Notes   string
	Results template.HTML
}

// Page serves the popup view over HTTP: GET shows the form and the current
// results region, POST activates the handler with the submitted notes.
type Page struct {
	Handler *Handler
	Region  *Buffer
	Title   string
}

func (p *Page) title() string {
	if p.Title == "" {
		return "Action item extractor"
	}
	return p.Title
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		p.write(w, http.StatusOK, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		notes := r.PostForm.Get("notes")
		status := http.StatusOK
		if err := p.Handler.ActivateWith(r.Context(), notes); errors.Is(err, ErrBusy) {
			status = http.StatusConflict
		}
		p.write(w, status, notes)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (p *Page) write(w http.ResponseWriter, status int, notes string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := pageData{
		Title: p.title(),
		Notes: notes,
		// Region fragments are produced by the render package and already escaped.
		Results: template.HTML(p.Region.Content()),
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("render popup page")
	}
}

// Package render produces the single HTML document delivered as the
// weekly digest.
package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/summarize"
)

// categoryTitles maps category keys to section headings.
var categoryTitles = map[digest.Category]string{
	digest.CategoryFrontend: "Frontend",
	digest.CategoryBackend:  "Backend",
	digest.CategoryDevOps:   "DevOps",
}

// Data is the template input for one digest document.
type Data struct {
	RunID       string
	GeneratedAt time.Time
	Sections    []Section
}

// Section is one category's rendered block.
type Section struct {
	Title   string
	Entries []summarize.Entry
}

// Digest renders the digest HTML for the summarized categories, in the
// fixed category order. Empty categories render a "no data" note.
func Digest(runID string, generatedAt time.Time, entries map[digest.Category][]summarize.Entry) ([]byte, error) {
	data := Data{RunID: runID, GeneratedAt: generatedAt}
	for _, cat := range digest.Categories {
		data.Sections = append(data.Sections, Section{
			Title:   categoryTitles[cat],
			Entries: entries[cat],
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weekly Tech Digest</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 720px; color: #1f2328; }
  h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .4rem; }
  h2 { margin-top: 2rem; color: #0969da; }
  article { margin: 1rem 0; padding: .8rem 1rem; border: 1px solid #d0d7de; border-radius: 6px; }
  article h3 { margin: 0 0 .3rem; font-size: 1rem; }
  .meta { color: #57606a; font-size: .85rem; }
  .importance-critical { border-left: 4px solid #cf222e; }
  .importance-high { border-left: 4px solid #bc4c00; }
  .importance-medium { border-left: 4px solid #0969da; }
  .importance-low { border-left: 4px solid #d0d7de; }
  .empty { color: #57606a; font-style: italic; }
  footer { margin-top: 2rem; color: #57606a; font-size: .8rem; }
</style>
</head>
<body>
<h1>Weekly Tech Digest</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if .Entries}}{{range .Entries}}
<article class="importance-{{.Importance}}">
  <h3><a href="{{.Item.URL}}">{{.Item.Title}}</a></h3>
  <p class="meta">{{.Item.Source}} · {{.Item.PublishedAt.Format "2006-01-02"}} · {{.Importance}}</p>
  <p>{{.Summary}}</p>
</article>
{{end}}{{else}}
<p class="empty">no data</p>
{{end}}
{{end}}
<footer>run {{.RunID}}</footer>
</body>
</html>
`))

package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/logging"
)

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	zipType  = "application/zip"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type download struct {
	Label string
	Name  string
	Href  template.URL
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// page is the view model shared by the split and consolidate templates.
type page struct {
	Title   string
	Active  string
	Headers []option
	Layouts []option
	Prefix  string
	Output  string

	Error    string
	Warnings []string
	Summary  string

	Workbook *download
	Archive  *download
	Files    []download
}

func newPage(active string, target header.Target, layout export.Layout) *page {
	p := &page{Active: active}
	switch active {
	case "consolidate":
		p.Title = "Consolidate workbooks"
	default:
		p.Title = "Split workbook"
	}
	for _, t := range header.Targets {
		p.Headers = append(p.Headers, option{Value: t.Slug(), Label: t.String(), Selected: t == target})
	}
	p.Layouts = []option{
		{Value: string(export.LayoutSingle), Label: "One sheet", Selected: layout != export.LayoutSheets},
		{Value: string(export.LayoutSheets), Label: "Mirror source sheets", Selected: layout == export.LayoutSheets},
	}
	return p
}

// report adds the grouping warnings and group downloads to p.
func (p *page) report(res *grouping.Result, bundle *export.Bundle) {
	for _, s := range res.Skipped {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%s: sheet %q has no %q column and was skipped", s.Workbook, s.Sheet, res.Target))
	}
	if res.Excluded > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%d row(s) without a %s were excluded", res.Excluded, res.Target))
	}
	if bundle == nil {
		return
	}
	p.Archive = &download{Label: "All workbooks (.zip)", Name: bundle.ArchiveName, Href: dataURI(zipType, bundle.Archive)}
	for _, f := range bundle.Files {
		p.Files = append(p.Files, download{
			Label: fmt.Sprintf("%s (%d rows)", f.Group, f.Rows),
			Name:  f.Name,
			Href:  dataURI(xlsxType, f.Data),
		})
	}
}

// dataURI embeds data in the page so results need no server-side state.
func dataURI(mediaType string, data []byte) template.URL {
	return template.URL("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ryabkov82/xlsx-splitter/internal/config"
	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/logging"
	"github.com/ryabkov82/xlsx-splitter/internal/merger"
	"github.com/ryabkov82/xlsx-splitter/internal/splitter"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

type handler struct {
	maxUpload int64
	newMerger func() merger.FileMerger
}

func newHandler(cfg *config.Config) *handler {
	return &handler{
		maxUpload: cfg.MaxUploadBytes(),
		newMerger: merger.NewStreamMerger,
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// formOptions reads the fields shared by both forms.
func formOptions(r *http.Request) (header.Target, export.Layout, error) {
	target, err := header.ParseTarget(r.FormValue("header"))
	if err != nil {
		return "", "", badInput("%v", err)
	}
	layout, err := export.ParseLayout(r.FormValue("layout"))
	if err != nil {
		return target, "", badInput("%v", err)
	}
	return target, layout, nil
}

func (h *handler) split(w http.ResponseWriter, r *http.Request) (*splitter.Result, splitter.Options, error) {
	var opts splitter.Options
	if err := parseUpload(w, r, h.maxUpload); err != nil {
		return nil, opts, err
	}
	target, layout, err := formOptions(r)
	opts = splitter.Options{Target: target, Layout: layout, Prefix: r.FormValue("prefix")}
	if err != nil {
		return nil, opts, err
	}
	files, err := uploadedFiles(r, "workbook")
	if err != nil {
		return nil, opts, err
	}
	if len(files) > 1 {
		return nil, opts, badInput("upload a single workbook to split")
	}

	res, err := splitter.Split(files[0].Name, files[0].Data, opts)
	entry := logging.FromContext(r.Context()).WithFields(log.Fields{
		"file":   files[0].Name,
		"header": target.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("split failed")
		return res, opts, err
	}
	entry.WithFields(log.Fields{
		"groups":   len(res.Grouping.Groups),
		"rows":     res.Grouping.Rows(),
		"excluded": res.Grouping.Excluded,
		"skipped":  len(res.Grouping.Skipped),
	}).Info("split workbook")
	return res, opts, nil
}

// consolidate parses the upload, runs checks against the parsed form and then
// merges the workbooks.
func (h *handler) consolidate(w http.ResponseWriter, r *http.Request, checks ...func(*http.Request) error) (*merger.Result, merger.Options, error) {
	var opts merger.Options
	if err := parseUpload(w, r, h.maxUpload); err != nil {
		return nil, opts, err
	}
	target, layout, err := formOptions(r)
	opts = merger.Options{
		Target:     target,
		Layout:     layout,
		Prefix:     r.FormValue("prefix"),
		OutputName: strings.TrimSpace(r.FormValue("output")),
	}
	if err != nil {
		return nil, opts, err
	}
	for _, check := range checks {
		if err := check(r); err != nil {
			return nil, opts, err
		}
	}
	files, err := uploadedFiles(r, "workbooks")
	if err != nil {
		return nil, opts, err
	}

	entry := logging.FromContext(r.Context()).WithFields(log.Fields{
		"files":  len(files),
		"header": target.String(),
	})
	res, err := h.newMerger().MergeFiles(files, opts)
	if err != nil {
		entry.WithError(err).Warn("consolidation failed")
		return nil, opts, err
	}
	entry.WithFields(log.Fields{
		"rows":    res.RowCount,
		"groups":  len(res.Grouping.Groups),
		"missing": len(res.Missing),
	}).Info("consolidated workbooks")
	return res, opts, nil
}

func (h *handler) splitForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, "split.html", newPage("split", header.TeamLead, export.LayoutSingle))
}

func (h *handler) splitPage(w http.ResponseWriter, r *http.Request) {
	res, opts, err := h.split(w, r)
	p := newPage("split", opts.Target, opts.Layout)
	p.Prefix = opts.Prefix
	if res != nil {
		p.report(res.Grouping, res.Bundle)
	}
	if err != nil {
		p.Error = errorMessage(err)
		renderPage(w, r, statusFor(err), "split.html", p)
		return
	}
	p.Summary = fmt.Sprintf("%d %s found, %d rows exported.",
		len(res.Grouping.Groups), res.Grouping.Target.Plural(), res.Grouping.Rows())
	renderPage(w, r, http.StatusOK, "split.html", p)
}

func (h *handler) consolidateForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, "consolidate.html", newPage("consolidate", header.TeamLead, export.LayoutSingle))
}

func (h *handler) consolidatePage(w http.ResponseWriter, r *http.Request) {
	res, opts, err := h.consolidate(w, r)
	p := newPage("consolidate", opts.Target, opts.Layout)
	p.Prefix = opts.Prefix
	p.Output = opts.OutputName
	if err != nil {
		p.Error = errorMessage(err)
		renderPage(w, r, statusFor(err), "consolidate.html", p)
		return
	}

	p.report(res.Grouping, res.Bundle)
	p.Workbook = &download{
		Label: fmt.Sprintf("%s (%d rows)", res.OutputName, res.RowCount),
		Name:  res.OutputName,
		Href:  dataURI(xlsxType, res.Workbook),
	}
	p.Summary = fmt.Sprintf("%d rows merged from %d workbook(s).", res.RowCount, len(r.MultipartForm.File["workbooks"]))
	renderPage(w, r, http.StatusOK, "consolidate.html", p)
}

func (h *handler) splitAPI(w http.ResponseWriter, r *http.Request) {
	res, _, err := h.split(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("X-Groups", strconv.Itoa(len(res.Grouping.Groups)))
	w.Header().Set("X-Excluded-Rows", strconv.Itoa(res.Grouping.Excluded))
	w.Header().Set("X-Skipped-Sheets", strconv.Itoa(len(res.Grouping.Skipped)))
	writeFile(w, zipType, res.Bundle.ArchiveName, res.Bundle.Archive)
}

func consolidateFormat(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.FormValue("format")))
}

func checkConsolidateFormat(r *http.Request) error {
	switch format := consolidateFormat(r); format {
	case "", "workbook", "zip":
		return nil
	default:
		return badInput("unknown format %q (want workbook or zip)", format)
	}
}

func (h *handler) consolidateAPI(w http.ResponseWriter, r *http.Request) {
	res, _, err := h.consolidate(w, r, checkConsolidateFormat)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := consolidateFormat(r)

	w.Header().Set("X-Merged-Rows", strconv.Itoa(res.RowCount))
	w.Header().Set("X-Groups", strconv.Itoa(len(res.Grouping.Groups)))
	w.Header().Set("X-Skipped-Sheets", strconv.Itoa(len(res.Grouping.Skipped)))
	if format != "zip" {
		writeFile(w, xlsxType, res.OutputName, res.Workbook)
		return
	}
	if res.Bundle == nil {
		writeError(w, r, res.Grouping.Err())
		return
	}
	writeFile(w, zipType, res.Bundle.ArchiveName, res.Bundle.Archive)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, statusFor(err), errorBody{
		Error:     errorMessage(err),
		RequestID: logging.RequestID(r.Context()),
	})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var input *inputError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &input), errors.Is(err, merger.ErrNoSources):
		return http.StatusBadRequest
	case errors.Is(err, workbook.ErrInvalidWorkbook),
		errors.Is(err, workbook.ErrEmptyWorkbook),
		errors.Is(err, grouping.ErrNoGroups),
		errors.Is(err, merger.ErrNoData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Something went wrong while processing the upload."
	}
	return err.Error()
}

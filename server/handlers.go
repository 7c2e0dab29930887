package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/ByLCY/splittext/config"
	"github.com/ByLCY/splittext/dom"
	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/pipeline"
	"github.com/ByLCY/splittext/split"
)

type splitRequest struct {
	HTML      string   `json:"html"`
	Selector  string   `json:"selector"`
	Types     []string `json:"types"`
	LineClass string   `json:"lineClass"`
	WordClass string   `json:"wordClass"`
	CharClass string   `json:"charClass"`
	Width     string   `json:"width"`
	Data      any      `json:"data"`
}

type splitResponse struct {
	HTML  string   `json:"html"`
	Lines []string `json:"lines"`
	Words []string `json:"words"`
	Chars []string `json:"chars"`
}

// prepared is a decoded request, resolved against the server config.
type prepared struct {
	doc   *html.Node
	job   pipeline.Job
	title string
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.prepare(w, r)
	if !ok {
		return
	}
	st, ok := s.run(w, r, p)
	if !ok {
		return
	}
	body, err := dom.InnerHTML(dom.Body(p.doc))
	if err != nil {
		jsonError(w, "serialize result: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(splitResponse{
		HTML:  body,
		Lines: pipeline.Texts(st.Lines()),
		Words: pipeline.Texts(st.Words()),
		Chars: pipeline.Texts(st.Chars()),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.rnd == nil {
		jsonError(w, "rendering is not available", http.StatusNotImplemented)
		return
	}
	p, ok := s.prepare(w, r)
	if !ok {
		return
	}
	st, ok := s.run(w, r, p)
	if !ok {
		return
	}
	res, err := pipeline.Preview(st, p.job.Layout, p.job.Split.LineClass, layout.DocumentMeta{
		Title:   p.title,
		Creator: "splittext",
	})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pdf, err := s.rnd.Render(res)
	if err != nil {
		s.log.Error("render failed", "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdf)
}

// prepare decodes the body and merges it over the server config. On failure the
// error response has already been written.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (*prepared, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if strings.TrimSpace(req.HTML) == "" {
		jsonError(w, "html is required", http.StatusBadRequest)
		return nil, false
	}

	cfg := s.requestConfig(req)
	if cfg.Selector == "" {
		jsonError(w, "selector is required", http.StatusBadRequest)
		return nil, false
	}
	if err := cfg.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	splitOpts, err := cfg.SplitOptions()
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	layoutOpts, err := cfg.LayoutOptions(s.ts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	doc, err := dom.ParseString(req.HTML)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	splitOpts.Logger = s.log
	return &prepared{
		doc:   doc,
		title: documentTitle(doc),
		job: pipeline.Job{
			Root:     doc,
			Selector: cfg.Selector,
			Data:     req.Data,
			Split:    splitOpts,
			Layout:   layoutOpts,
			Log:      s.log,
		},
	}, true
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, p *prepared) (*split.SplitText, bool) {
	st, err := pipeline.Run(r.Context(), p.job)
	if err == nil {
		return st, true
	}
	var stageErr *split.StageError
	switch {
	case errors.Is(err, split.ErrTargetNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &stageErr):
		s.log.Warn("split failed", "selector", p.job.Selector, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("split failed", "selector", p.job.Selector, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
	return nil, false
}

// requestConfig overlays the non-empty request fields on the server config.
func (s *Server) requestConfig(req splitRequest) config.Config {
	cfg := s.cfg
	if req.Selector != "" {
		cfg.Selector = req.Selector
	}
	if len(req.Types) > 0 {
		cfg.Types = req.Types
	}
	if req.LineClass != "" {
		cfg.Classes.Line = req.LineClass
	}
	if req.WordClass != "" {
		cfg.Classes.Word = req.WordClass
	}
	if req.CharClass != "" {
		cfg.Classes.Char = req.CharClass
	}
	if req.Width != "" {
		cfg.Layout.Width = req.Width
	}
	return cfg
}

func documentTitle(doc *html.Node) string {
	titles, err := dom.QueryAll(doc, "title")
	if err != nil || len(titles) == 0 {
		return ""
	}
	return strings.TrimSpace(dom.TextContent(titles[0]))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/pedigree/pkg/buildinfo"
	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pipeline"
	"github.com/matzehuels/pedigree/pkg/render/dot"
	"github.com/matzehuels/pedigree/pkg/report"
)

// changeResponse answers PUT /pedigree and POST /operations.
type changeResponse struct {
	Created     []string  `json:"created,omitempty"`
	Removed     []string  `json:"removed,omitempty"`
	Individuals int       `json:"individuals"`
	DocHash     string    `json:"docHash"`
	Saved       bool      `json:"saved"`
	Cache       cacheInfo `json:"cache"`
}

type cacheInfo struct {
	LayoutHit bool `json:"layoutHit"`
	RiskHit   bool `json:"riskHit"`
}

func newChangeResponse(res *pipeline.Result, saved bool) changeResponse {
	return changeResponse{
		Created:     res.Mutation.Created,
		Removed:     res.Mutation.Removed,
		Individuals: res.Stats.Individuals,
		DocHash:     res.DocHash,
		Saved:       saved,
		Cache:       cacheInfo{LayoutHit: res.CacheInfo.LayoutHit, RiskHit: res.CacheInfo.RiskHit},
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleGetPedigree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, document.FromPedigree(s.session.Snapshot()))
}

func (s *Server) handlePutPedigree(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Read(r.Context(), r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChangeResponse(res, s.persist(r.Context())))
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	list, err := ops.Decode(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.session.Apply(r.Context(), list...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChangeResponse(res, s.persist(r.Context())))
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Layout())
}

func (s *Server) handleRisks(w http.ResponseWriter, _ *http.Request) {
	risks := s.session.Risks()
	out := make(map[string]document.Risks, len(risks))
	for id, m := range risks {
		out[id] = document.RisksFrom(m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = report.Write(w, s.session.Snapshot(), s.opts.Now())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ropts := pipeline.RenderOptions{
		Format: q.Get("format"),
		Options: dot.Options{
			Labels: flag(q.Get("labels")),
			Risks:  flag(q.Get("risks")),
		},
	}
	if ropts.Format == "" {
		ropts.Format = dot.FormatSVG
	}
	out, err := s.session.Render(r.Context(), ropts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	contentType := "text/vnd.graphviz; charset=utf-8"
	if ropts.Format == dot.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no document store configured"))
		return
	}
	infos, err := s.opts.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": infos, "current": s.opts.Document})
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// errorResponse is the body of every error answer.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.IsPrecondition(err) {
		return http.StatusConflict
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOperation, errors.ErrCodeInvalidDocument:
		return http.StatusBadRequest
	case errors.ErrCodeStore:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
		if status == http.StatusRequestEntityTooLarge {
			code = errors.ErrCodeInvalidInput
		}
	}
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message(err)})
}

// message joins the messages of every coded error in the chain, without
// repeating the codes, and ends with the first uncoded cause.
func message(err error) string {
	var parts []string
	for err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) {
			parts = append(parts, err.Error())
			break
		}
		if e.Message != "" {
			parts = append(parts, e.Message)
		}
		err = e.Cause
	}
	return strings.Join(parts, ": ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

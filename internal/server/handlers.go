package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowsketch/pkg/controller"
	errs "github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

// headerRevision carries the revision id of the state a response reflects.
const headerRevision = "X-Revision-ID"

// mutationResponse is returned by every state-changing endpoint.
type mutationResponse struct {
	Revision   uint64                   `json:"revision"`
	RevisionID string                   `json:"revision_id"`
	ValidEdges *int                     `json:"valid_edges,omitempty"`
	Toggled    string                   `json:"toggled,omitempty"`
	Enabled    *bool                    `json:"enabled,omitempty"`
	Cleared    *int                     `json:"cleared,omitempty"`
	Vertices   []controller.VertexState `json:"vertices"`
	Definition string                   `json:"definition"`
	Rendered   bool                     `json:"rendered"`
	Status     controller.Status        `json:"status"`
}

func (s *Server) newMutationResponse(res controller.Result) mutationResponse {
	return mutationResponse{
		Revision:   res.Revision,
		RevisionID: res.RevisionID,
		Vertices:   res.Vertices,
		Definition: res.Definition,
		Rendered:   res.Rendered,
		Status:     res.Status,
	}
}

func (s *Server) handleIndex(static fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(static, "index.html")
		if err != nil {
			s.writeError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "read index"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(data); err != nil {
			s.logWriteError(r, err)
		}
	}
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	w.Header().Set(headerRevision, st.RevisionID)
	s.writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, errs.MaxInputBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, errs.New(errs.ErrCodeTooLarge, "input too large (max %d bytes)", errs.MaxInputBytes))
			return
		}
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}

	res := s.ctrl.Update(r.Context(), string(body))
	resp := s.newMutationResponse(res)
	resp.ValidEdges = &res.ValidEdges
	w.Header().Set(headerRevision, res.RevisionID)
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	var err error
	if r.URL.RawPath != "" {
		label, err = url.PathUnescape(label)
	}
	if err != nil || label == "" {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid vertex label"))
		return
	}

	res := s.ctrl.Toggle(r.Context(), label)
	resp := s.newMutationResponse(res)
	resp.Toggled = res.Toggled
	resp.Enabled = &res.Enabled
	w.Header().Set(headerRevision, res.RevisionID)
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res := s.ctrl.Reset(r.Context())
	resp := s.newMutationResponse(res)
	resp.Cleared = &res.Cleared
	w.Header().Set(headerRevision, res.RevisionID)
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleDefinition returns the current Mermaid definition as plain text.
// ?escaped=1 applies the embedding escape; ?script=1 returns the full
// render call.
func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	def := st.Definition
	q := r.URL.Query()
	switch {
	case q.Get("script") == "1":
		def = mermaid.ScriptCall(def)
	case q.Get("escaped") == "1":
		def = mermaid.Escape(def)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(headerRevision, st.RevisionID)
	if _, err := io.WriteString(w, def); err != nil {
		s.logWriteError(r, err)
	}
}

// handleDiagramSVG renders the current graph through Graphviz.
func (s *Server) handleDiagramSVG(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	res, err := s.runner.RenderView(r.Context(), st.Graph, pipeline.Options{
		Format:   pipeline.FormatSVG,
		Source:   "http",
		Detailed: r.URL.Query().Get("detailed") == "1",
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set(headerRevision, st.RevisionID)
	if res.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if _, err := w.Write(res.Artifact); err != nil {
		s.logWriteError(r, err)
	}
}

// =============================================================================
// Response helpers
// =============================================================================

type errorResponse struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logWriteError(r, err)
	}
}

// writeError maps an error code to an HTTP status and writes a JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	s.writeJSON(w, r, statusFor(code), errorResponse{Error: errs.UserMessage(err), Code: code})
}

// logWriteError records a response body that could not be written, usually
// because the client went away.
func (s *Server) logWriteError(r *http.Request, err error) {
	s.logger.Debug("write response", "method", r.Method, "path", r.URL.Path, "err", err)
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeRenderFailed:
		return http.StatusBadGateway
	case errs.ErrCodeNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/depmanifest/pkg/buildinfo"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/pipeline"
	"github.com/matzehuels/depmanifest/pkg/render"
	"github.com/matzehuels/depmanifest/pkg/storage"
)

// MaxBodySize bounds request bodies: manifest plus catalog plus JSON overhead.
const MaxBodySize = 2*pipeline.MaxManifestSize + 64<<10

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Manifest       string            `json:"manifest"`
	Filename       string            `json:"filename"`
	Catalog        string            `json:"catalog,omitempty"`
	Roles          []string          `json:"roles,omitempty"`
	Configurations map[string]string `json:"configurations,omitempty"`
	Offline        bool              `json:"offline,omitempty"`
	Refresh        bool              `json:"refresh,omitempty"`
}

// ResolveResponse is the body returned by POST /v1/resolve.
type ResolveResponse struct {
	ID           string              `json:"id"`
	Project      string              `json:"project,omitempty"`
	ManifestType string              `json:"manifest_type"`
	Platform     *pipeline.Platform  `json:"platform,omitempty"`
	Dependencies []manifest.Resolved `json:"dependencies"`
	Cached       bool                `json:"cached"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	result, err := s.runner.Resolve(r.Context(), pipeline.Options{
		Manifest:         req.Manifest,
		ManifestFilename: req.Filename,
		Catalog:          req.Catalog,
		Roles:            req.Roles,
		Configurations:   req.Configurations,
		Offline:          req.Offline,
		Refresh:          req.Refresh,
		Logger:           s.logger,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	run := storage.NewRun(req.Filename)
	run.ManifestType = result.ManifestType
	run.Project = result.Project
	run.Platform = result.Platform.String()
	run.Roles = req.Roles
	run.Dependencies = result.Dependencies
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		s.writeError(w, err)
		return
	}

	deps := result.Dependencies
	if deps == nil {
		deps = []manifest.Resolved{}
	}
	writeJSON(w, http.StatusOK, ResolveResponse{
		ID:           run.ID,
		Project:      result.Project,
		ManifestType: result.ManifestType,
		Platform:     result.Platform,
		Dependencies: deps,
		Cached:       result.CacheInfo.ResolveHit,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	if err := render.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	dot := render.ToDOT(render.Input{
		Project:      run.Project,
		Platform:     run.Platform,
		Dependencies: run.Dependencies,
	}, render.Options{Detailed: r.URL.Query().Get("detailed") == "true"})
	data, err := render.Render(r.Context(), dot, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// StatusCode maps an error to an HTTP status via its error code.
func StatusCode(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidManifest, errs.ErrCodeInvalidCoordinate,
		errs.ErrCodeInvalidRole, errs.ErrCodeInvalidCatalog, errs.ErrCodeInvalidFormat,
		errs.ErrCodeInvalidPath, errs.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeRunNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeAmbiguousPlatform, errs.ErrCodeUnresolvedVersion, errs.ErrCodeConflictingRole,
		errs.ErrCodeUnknownAlias, errs.ErrCodeConfiguration, errs.ErrCodeBOMNotFound:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNetwork:
		return http.StatusBadGateway
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		code, msg = errs.ErrCodeInternal, "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/prereqgraph/pkg/buildinfo"
	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// CacheHeader reports whether the artifact came from the cache.
const CacheHeader = "X-Cache"

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleGraph handles GET /courses/{id}/graph.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	id, opts, ok := s.courseRequest(w, r)
	if !ok {
		return
	}
	g, hit, err := s.runner.GraphWithCacheInfo(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, graph.FromDAG(g))
}

// handleEligibility handles POST /courses/{id}/eligibility.
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	id, opts, ok := s.courseRequest(w, r)
	if !ok {
		return
	}
	var p eval.Progress
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "invalid progress body"))
		return
	}
	ev, err := s.runner.Evaluate(r.Context(), id, p, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type statsResponse struct {
	CourseID int `json:"course_id"`
	eval.Stats
}

// handleStats handles GET /courses/{id}/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, opts, ok := s.courseRequest(w, r)
	if !ok {
		return
	}
	st, err := s.runner.Stats(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{CourseID: id, Stats: st})
}

type treeCourse struct {
	CourseID int    `json:"course_id"`
	Code     string `json:"course_code,omitempty"`
	Title    string `json:"title,omitempty"`
}

type treeResponse struct {
	CourseID    int                  `json:"course_id"`
	MaxDepth    int                  `json:"max_depth"`
	TreeByDepth map[int][]treeCourse `json:"tree_by_depth"`
}

// handleTree handles GET /courses/{id}/tree.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	id, opts, ok := s.courseRequest(w, r)
	if !ok {
		return
	}
	g, err := s.runner.Graph(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.runner.Stats(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := treeResponse{
		CourseID:    id,
		MaxDepth:    st.MaxDepth,
		TreeByDepth: make(map[int][]treeCourse, len(st.TreeByDepth)),
	}
	byCourse := make(map[int]*dag.Node)
	for _, n := range g.Nodes() {
		if n.IsCourse() {
			byCourse[n.CourseID] = n
		}
	}
	for depth, ids := range st.TreeByDepth {
		courses := make([]treeCourse, 0, len(ids))
		for _, cid := range ids {
			tc := treeCourse{CourseID: cid}
			if n, ok := byCourse[cid]; ok {
				tc.Code, tc.Title = n.Label, n.Title
				if n.Course != nil && n.Course.Code != "" {
					tc.Code = n.Course.Code
				}
			}
			courses = append(courses, tc)
		}
		resp.TreeByDepth[depth] = courses
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLayout handles GET /courses/{id}/layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id, opts, ok := s.courseRequest(w, r)
	if !ok {
		return
	}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, l)
}

// handleRender handles GET /courses/{id}/graph.<format>. Progress query
// parameters color the nodes.
func (s *Server) handleRender(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, opts, ok := s.courseRequest(w, r)
		if !ok {
			return
		}
		opts.Format = format

		progress, err := progressFromQuery(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data, err := s.runner.Render(r.Context(), id, progress, opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", pipeline.ContentTypes[format])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// =============================================================================
// Request Parsing
// =============================================================================

// courseRequest parses the course id and query options, writing a 400 on
// failure.
func (s *Server) courseRequest(w http.ResponseWriter, r *http.Request) (int, pipeline.Options, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, perrors.New(perrors.ErrCodeInvalidInput, "invalid course id %q", chi.URLParam(r, "id")))
		return 0, pipeline.Options{}, false
	}
	if err := perrors.ValidateCourseID(id); err != nil {
		s.fail(w, r, err)
		return 0, pipeline.Options{}, false
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return 0, pipeline.Options{}, false
	}
	return id, opts, true
}

func optionsFromQuery(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Direction: q.Get("direction"),
		Format:    q.Get("format"),
	}

	var err error
	if v := q.Get("node_separation"); v != "" {
		if opts.NodeSeparation, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "invalid node_separation %q", v)
		}
	}
	if v := q.Get("rank_separation"); v != "" {
		if opts.RankSeparation, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "invalid rank_separation %q", v)
		}
	}
	if v := q.Get("passes"); v != "" {
		if opts.Passes, err = strconv.Atoi(v); err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "invalid passes %q", v)
		}
	}
	if v := q.Get("detailed"); v != "" {
		if opts.Detailed, err = strconv.ParseBool(v); err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "invalid detailed %q", v)
		}
	}
	if v := q.Get("refresh"); v != "" {
		if opts.Refresh, err = strconv.ParseBool(v); err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "invalid refresh %q", v)
		}
	}
	if err := opts.ValidateForLayout(); err != nil {
		return opts, err
	}
	return opts, nil
}

// progressFromQuery reads comma-separated course ids from the completed,
// in_progress, planned and failed parameters. It returns nil when none is
// present.
func progressFromQuery(r *http.Request) (*eval.Progress, error) {
	q := r.URL.Query()
	var (
		p     eval.Progress
		found bool
	)
	for _, f := range []struct {
		name string
		dst  *[]int
	}{
		{"completed", &p.Completed},
		{"in_progress", &p.InProgress},
		{"planned", &p.Planned},
		{"failed", &p.Failed},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		found = true
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, perrors.New(perrors.ErrCodeInvalidInput, "invalid course id %q in %s", part, f.name)
			}
			*f.dst = append(*f.dst, id)
		}
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Retry bool   `json:"retry"`
}

// fail maps err to a status code and writes it. Server-side failures are
// logged; the client only sees the user message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"code", code,
			"ids", perrors.IDs(err),
			"err", err,
			"request_id", RequestID(r.Context()),
		)
	}
	msg := perrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, string(code), msg, perrors.Retryable(err))
}

func statusFor(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	switch perrors.GetCode(err) {
	case perrors.ErrCodeMissingData, perrors.ErrCodeNotFound, perrors.ErrCodeCourseNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeInvalidGraph, perrors.ErrCodeCycleDetected, perrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case perrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case perrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set(CacheHeader, "HIT")
	} else {
		w.Header().Set(CacheHeader, "MISS")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string, retry bool) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, Retry: retry})
}

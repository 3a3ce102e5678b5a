package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/nodeio/pkg/buildinfo"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/pipeline"
	"github.com/matzehuels/nodeio/pkg/render"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type warningBody struct {
	Code    errors.Code `json:"code"`
	Group   string      `json:"group,omitempty"`
	Node    string      `json:"node,omitempty"`
	Key     string      `json:"key,omitempty"`
	Message string      `json:"message"`
}

type groupBody struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Links int    `json:"links"`
}

type inspectBody struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Version      int                   `json:"version"`
	GraphKind    string                `json:"graph_kind"`
	PathMode     string                `json:"path_mode"`
	Created      time.Time             `json:"created"`
	Generator    string                `json:"generator,omitempty"`
	Nodes        int                   `json:"nodes"`
	Links        int                   `json:"links"`
	Groups       []groupBody           `json:"groups"`
	Dependencies []document.Dependency `json:"dependencies"`
}

type validateBody struct {
	Valid    bool          `json:"valid"`
	Nodes    int           `json:"nodes"`
	Links    int           `json:"links"`
	Skipped  int           `json:"skipped"`
	Removed  []string      `json:"removed"`
	Warnings []warningBody `json:"warnings"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *server) inspect(w http.ResponseWriter, r *http.Request) {
	doc, _, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := document.Validate(doc); err != nil {
		writeError(w, err)
		return
	}

	sum := pipeline.Summarize(doc)
	h := sum.Header
	body := inspectBody{
		ID:           h.ID,
		Name:         h.Name,
		Version:      h.Version,
		GraphKind:    h.GraphKind,
		PathMode:     h.PathMode,
		Created:      h.Created,
		Generator:    h.Generator,
		Nodes:        sum.Stats.Nodes,
		Links:        sum.Stats.Links,
		Groups:       make([]groupBody, 0, len(sum.Groups)),
		Dependencies: h.Dependencies,
	}
	if body.Dependencies == nil {
		body.Dependencies = []document.Dependency{}
	}
	for _, g := range sum.Groups {
		body.Groups = append(body.Groups, groupBody{Name: g.Name, Nodes: g.Nodes, Links: g.Links})
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) validate(w http.ResponseWriter, r *http.Request) {
	doc, _, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Validate(r.Context(), doc, "", remoteLoader{})
	if err != nil {
		writeError(w, err)
		return
	}

	body := validateBody{
		Valid:    true,
		Nodes:    res.Nodes,
		Links:    res.Links,
		Skipped:  res.Skipped,
		Removed:  res.Removed,
		Warnings: make([]warningBody, 0, len(res.Warnings)),
	}
	if body.Removed == nil {
		body.Removed = []string{}
	}
	for _, wn := range res.Warnings {
		body.Warnings = append(body.Warnings, warningBody{
			Code: wn.Code, Group: wn.Group, Node: wn.Node, Key: wn.Key, Message: wn.Message,
		})
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) render(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := render.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	detailed := false
	if v := q.Get("detailed"); v != "" {
		if detailed, err = strconv.ParseBool(v); err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "detailed: %q is not a boolean", v))
			return
		}
	}

	_, data, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.runner.Render(r.Context(), data, pipeline.RenderOptions{
		Group:    q.Get("group"),
		Format:   format,
		Detailed: detailed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// readDocument reads and decodes the request body.
func readDocument(r *http.Request) (*document.Document, []byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	doc, err := document.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	return doc, data, nil
}

// remoteLoader refuses every dependency: uploaded documents may not reach
// into the server's filesystem.
type remoteLoader struct{}

func (remoteLoader) Load(_ context.Context, dep document.Dependency, _ string) (nodegraph.Asset, error) {
	return nodegraph.Asset{}, errors.New(errors.ErrCodeUnsupported, "%s %q is not available to the API", dep.Kind, dep.Name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code, err), errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code, err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidName, errors.ErrCodeInvalidDocument:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupportedVersion, errors.ErrCodeWrongGraphKind, errors.ErrCodeGroupCycle:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeGroupNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

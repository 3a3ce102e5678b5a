package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodeio/pkg/capture"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/observability"
	"github.com/matzehuels/nodeio/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(pipeline.NewRunner(nil, nil, log.New(io.Discard))))
	t.Cleanup(srv.Close)
	return srv
}

// encodedDocument captures an Input -> Output graph with one asset.
func encodedDocument(t *testing.T) []byte {
	t.Helper()
	lib := nodegraph.NewLibrary(nil)
	lib.AddAsset(nodegraph.Asset{Kind: "image", Name: "wood.png", Path: "/tex/wood.png"})
	tree, _ := lib.NewTree("Material", "shader")
	in, _ := tree.NewNode("Input")
	out, _ := tree.NewNode("Output")
	if _, err := tree.Connect(in, 0, out, 0); err != nil {
		t.Fatal(err)
	}
	tex, _ := tree.NewNode("ShaderNodeTexImage")
	if err := tex.Set("image", nodegraph.AssetRef("wood.png")); err != nil {
		t.Fatal(err)
	}

	res, err := capture.Capture(context.Background(), tree, capture.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := document.WriteJSON(res.Document, &buf, false); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decode[map[string]string](t, resp); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestInspect(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/inspect", encodedDocument(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[inspectBody](t, resp)
	if body.Name != "Material" || body.Nodes != 3 || body.Links != 1 {
		t.Errorf("body = %+v", body)
	}
	want := []groupBody{{Name: document.MainGroup, Nodes: 3, Links: 1}}
	if diff := cmp.Diff(want, body.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateReportsDependencies(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/validate", encodedDocument(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[validateBody](t, resp)
	if !body.Valid || body.Nodes != 3 || body.Links != 1 {
		t.Errorf("body = %+v", body)
	}
	if len(body.Warnings) != 1 || body.Warnings[0].Code != errors.WarnDependencyLoadFailed {
		t.Errorf("warnings = %+v, want one DEPENDENCY_LOAD_FAILED", body.Warnings)
	}
}

func TestRender(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/render?format=dot", encodedDocument(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `"Input" -> "Output"`) {
		t.Errorf("DOT = %s", data)
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)
	doc := encodedDocument(t)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
		code   errors.Code
	}{
		{"empty body", "/v1/inspect", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"not json", "/v1/validate", []byte("{nope"), http.StatusBadRequest, errors.ErrCodeInvalidDocument},
		{"unknown group", "/v1/render?group=Grain", doc, http.StatusNotFound, errors.ErrCodeGroupNotFound},
		{"bad format", "/v1/render?format=gif", doc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad detailed", "/v1/render?detailed=maybe", doc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorBody](t, resp)
			if body.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	s := &server{runner: pipeline.NewRunner(nil, nil, log.New(io.Discard))}
	h := limitBody(16)(http.HandlerFunc(s.inspect))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/inspect", bytes.NewReader(encodedDocument(t)))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeWrongGraphKind, http.StatusUnprocessableEntity},
		{errors.ErrCodeUnsupportedVersion, http.StatusUnprocessableEntity},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code, errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopServerHooks
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	post(t, srv.URL+"/v1/render?group=Missing", encodedDocument(t))

	if diff := cmp.Diff([]int{http.StatusOK, http.StatusNotFound}, hooks.statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

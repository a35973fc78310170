package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/depmanifest/pkg/bom"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/integrations"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/pipeline"
	"github.com/matzehuels/depmanifest/pkg/storage"
)

const gradleScript = `
dependencies {
    implementation(platform("org.junit:junit-bom:5.10.2"))
    api("org.junit.jupiter:junit-jupiter-engine")
    "optionalApi"("org.mybatis:mybatis:3.5.15")
}
`

func newTestServer(t *testing.T) (*httptest.Server, storage.Store) {
	t.Helper()
	runner := pipeline.NewRunner(nil, nil, nil)
	runner.Local = bom.LoaderFunc(func(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error) {
		if c.Artifact != "junit-bom" {
			return nil, integrations.ErrNotFound
		}
		return map[string]string{"org.junit.jupiter:junit-jupiter-engine": version}, nil
	})
	store := storage.NewMemoryStore()
	ts := httptest.NewServer(New(runner, store, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postResolve(t *testing.T, ts *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/v1/resolve", "application/json", bytes.NewReader(data))
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
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
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

func TestResolve(t *testing.T) {
	ts, store := newTestServer(t)

	resp := postResolve(t, ts, ResolveRequest{Manifest: gradleScript, Filename: "build.gradle.kts"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[ResolveResponse](t, resp)

	if body.ID == "" || body.ManifestType != "build.gradle.kts" {
		t.Errorf("body = %+v", body)
	}
	if body.Platform == nil || body.Platform.Coordinate.Artifact != "junit-bom" {
		t.Errorf("Platform = %+v", body.Platform)
	}
	if len(body.Dependencies) != 2 {
		t.Fatalf("Dependencies = %v", body.Dependencies)
	}
	if d := body.Dependencies[0]; d.Version != "5.10.2" || d.Role != manifest.RoleCompileExport || !d.Managed {
		t.Errorf("dependency[0] = %+v", d)
	}

	run, err := store.GetRun(context.Background(), body.ID)
	if err != nil {
		t.Fatalf("run not stored: %v", err)
	}
	if run.Platform != "org.junit:junit-bom:5.10.2" || len(run.Dependencies) != 2 {
		t.Errorf("stored run = %+v", run)
	}
}

func TestResolve_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   errs.Code
	}{
		{"missing manifest", ResolveRequest{Filename: "pom.xml"}, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unsupported", ResolveRequest{Manifest: "x", Filename: "Cargo.toml"}, http.StatusBadRequest, errs.ErrCodeUnsupported},
		{"unknown field", map[string]string{"manifest": "x", "filename": "pom.xml", "path": "/etc/passwd"}, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"bad role", ResolveRequest{Manifest: gradleScript, Filename: "build.gradle.kts", Roles: []string{"runtime"}}, http.StatusBadRequest, errs.ErrCodeInvalidRole},
		{
			"unresolved version",
			ResolveRequest{Manifest: "dependencies {\n    api(\"org.example:lib\")\n}\n", Filename: "build.gradle.kts"},
			http.StatusUnprocessableEntity, errs.ErrCodeUnresolvedVersion,
		},
		{
			"bom not found",
			ResolveRequest{Manifest: "dependencies {\n    api(platform(\"org.example:bom:1.0\"))\n}\n", Filename: "build.gradle.kts"},
			http.StatusUnprocessableEntity, errs.ErrCodeBOMNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postResolve(t, ts, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorBody](t, resp)
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", body.Error.Code, tt.code, body.Error.Message)
			}
		})
	}
}

func TestResolve_MalformedJSON(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/v1/resolve", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRuns(t *testing.T) {
	ts, _ := newTestServer(t)

	var ids []string
	for range 3 {
		resp := postResolve(t, ts, ResolveRequest{Manifest: gradleScript, Filename: "build.gradle.kts"})
		ids = append(ids, decode[ResolveResponse](t, resp).ID)
	}

	resp, err := http.Get(ts.URL + "/v1/runs/" + ids[1])
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET run status = %d", resp.StatusCode)
	}
	if run := decode[storage.Run](t, resp); run.ID != ids[1] {
		t.Errorf("run.ID = %s, want %s", run.ID, ids[1])
	}

	list, err := http.Get(ts.URL + "/v1/runs?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	if body := decode[struct{ Runs []storage.Run }](t, list); len(body.Runs) != 2 {
		t.Errorf("listed %d runs, want 2", len(body.Runs))
	}

	bad, err := http.Get(ts.URL + "/v1/runs?limit=zero")
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", bad.StatusCode)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, id := range []string{storage.NewRun("x").ID, "not-a-uuid"} {
		resp, err := http.Get(ts.URL + "/v1/runs/" + id)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET /v1/runs/%s status = %d, want 404", id, resp.StatusCode)
		}
	}
}

func TestGraph(t *testing.T) {
	ts, _ := newTestServer(t)
	id := decode[ResolveResponse](t, postResolve(t, ts, ResolveRequest{Manifest: gradleScript, Filename: "build.gradle.kts"})).ID

	resp, err := http.Get(fmt.Sprintf("%s/v1/runs/%s/graph?format=dot", ts.URL, id))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `"platform" -> "org.junit.jupiter:junit-jupiter-engine"`) {
		t.Errorf("graph missing platform edge:\n%s", buf.String())
	}

	bad, err := http.Get(fmt.Sprintf("%s/v1/runs/%s/graph?format=pdf", ts.URL, id))
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("pdf status = %d, want 400", bad.StatusCode)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.New(errs.ErrCodeInvalidManifest, "x"), http.StatusBadRequest},
		{errs.New(errs.ErrCodeRunNotFound, "x"), http.StatusNotFound},
		{&manifest.AmbiguousPlatformError{}, http.StatusUnprocessableEntity},
		{&manifest.ConflictingRoleError{}, http.StatusUnprocessableEntity},
		{errs.New(errs.ErrCodeNetwork, "x"), http.StatusBadGateway},
		{errs.New(errs.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{fmt.Errorf("wrapped: %w", errs.New(errs.ErrCodeUnknownAlias, "x")), http.StatusUnprocessableEntity},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(pipeline.NewRunner(nil, nil, nil), nil, nil).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

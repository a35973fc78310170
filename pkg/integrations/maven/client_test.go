package maven

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/depmanifest/pkg/cache"
	"github.com/matzehuels/depmanifest/pkg/integrations"
)

func TestPOMPath(t *testing.T) {
	tests := []struct {
		group, artifact, version string
		want                     string
		wantErr                  bool
	}{
		{"org.junit", "junit-bom", "5.10.0", "org/junit/junit-bom/5.10.0/junit-bom-5.10.0.pom", false},
		{"io.github.microsphere-projects", "microsphere-java-dependencies", "0.0.1",
			"io/github/microsphere-projects/microsphere-java-dependencies/0.0.1/microsphere-java-dependencies-0.0.1.pom", false},
		{"org.junit", "junit-bom", "", "", true},
		{"org.junit", "../etc", "1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.artifact, func(t *testing.T) {
			got, err := POMPath(tt.group, tt.artifact, tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("POMPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("POMPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	client := NewClient(c, time.Hour, srv.URL+"/maven2/")
	client.SetHTTPClient(srv.Client())
	client.SetRetry(1, time.Millisecond)
	return client
}

func TestClientFetchPOM(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maven2/org/junit/junit-bom/5.10.0/junit-bom-5.10.0.pom" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(junitBOM))
	}))
	defer server.Close()

	c := testClient(t, server)
	ctx := context.Background()

	for range 2 {
		p, err := c.FetchPOM(ctx, "org.junit", "junit-bom", "5.10.0")
		if err != nil {
			t.Fatalf("FetchPOM: %v", err)
		}
		if p.ArtifactID != "junit-bom" {
			t.Errorf("ArtifactID = %q", p.ArtifactID)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second fetch should be cached)", hits.Load())
	}

	c.SetRefresh(true)
	if _, err := c.FetchPOM(ctx, "org.junit", "junit-bom", "5.10.0"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("refresh should bypass cache, hits = %d", hits.Load())
	}
}

func TestClientFetchPOMNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := testClient(t, server).FetchPOM(context.Background(), "org.missing", "bom", "1.0")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchPOM() error = %v, want ErrNotFound", err)
	}
}

func TestNewClientDefaultURL(t *testing.T) {
	c := NewClient(nil, time.Hour, "")
	if c.BaseURL() != DefaultRepositoryURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultRepositoryURL)
	}
}

func TestLocalRepository(t *testing.T) {
	dir := t.TempDir()
	pomDir := filepath.Join(dir, "org", "junit", "junit-bom", "5.10.0")
	if err := os.MkdirAll(pomDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pomDir, "junit-bom-5.10.0.pom"), []byte(junitBOM), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := NewLocalRepository(dir)
	p, err := repo.FetchPOM(context.Background(), "org.junit", "junit-bom", "5.10.0")
	if err != nil {
		t.Fatalf("FetchPOM: %v", err)
	}
	if len(p.ManagedVersions()) != 2 {
		t.Errorf("ManagedVersions() = %v", p.ManagedVersions())
	}

	_, err = repo.FetchPOM(context.Background(), "org.junit", "junit-bom", "9.9.9")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("missing pom error = %v, want ErrNotFound", err)
	}
}

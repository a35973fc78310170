package bom

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/depmanifest/pkg/cache"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/integrations"
	"github.com/matzehuels/depmanifest/pkg/integrations/maven"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// fakeRepo serves POMs from memory, keyed by "group:artifact:version".
type fakeRepo struct {
	poms    map[string]string
	fetched []string
}

func (r *fakeRepo) FetchPOM(_ context.Context, group, artifact, version string) (*maven.Project, error) {
	id := group + ":" + artifact + ":" + version
	r.fetched = append(r.fetched, id)
	doc, ok := r.poms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integrations.ErrNotFound, id)
	}
	return maven.ParsePOM([]byte(doc))
}

func pom(gav, body string) string {
	c, v, _ := manifest.ParseCoordinate(gav)
	return fmt.Sprintf(`<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>%s</project>`,
		c.Group, c.Artifact, v, body)
}

func managed(deps ...string) string {
	s := "<dependencyManagement><dependencies>"
	for _, d := range deps {
		s += d
	}
	return s + "</dependencies></dependencyManagement>"
}

func dep(g, a, v string) string {
	return fmt.Sprintf("<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version></dependency>", g, a, v)
}

func importDep(g, a, v string) string {
	return fmt.Sprintf("<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version><type>pom</type><scope>import</scope></dependency>", g, a, v)
}

func TestPOMLoader(t *testing.T) {
	repo := &fakeRepo{poms: map[string]string{
		"org.acme:parent:1": pom("org.acme:parent:1",
			"<properties><h2.version>2.2.224</h2.version></properties>"+
				managed(dep("org.slf4j", "slf4j-api", "2.0.9"))),
		"org.acme:acme-bom:1.0": pom("org.acme:acme-bom:1.0",
			"<parent><groupId>org.acme</groupId><artifactId>parent</artifactId><version>1</version></parent>"+
				managed(
					dep("com.h2database", "h2", "${h2.version}"),
					dep("org.acme", "core", "${project.version}"),
					importDep("org.junit", "junit-bom", "5.10.0"),
				)),
		"org.junit:junit-bom:5.10.0": pom("org.junit:junit-bom:5.10.0", managed(
			dep("org.junit.jupiter", "junit-jupiter-engine", "5.10.0"),
			dep("com.h2database", "h2", "1.0-from-import"),
		)),
	}}

	got, err := NewPOMLoader(repo, nil).Load(context.Background(), manifest.MustParseCoordinate("org.acme:acme-bom"), "1.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{
		"com.h2database:h2":                      "2.2.224",
		"org.acme:core":                          "1.0",
		"org.slf4j:slf4j-api":                    "2.0.9",
		"org.junit.jupiter:junit-jupiter-engine": "5.10.0",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestPOMLoaderCycle(t *testing.T) {
	repo := &fakeRepo{poms: map[string]string{
		"g:a:1": pom("g:a:1", managed(importDep("g", "b", "1"))),
		"g:b:1": pom("g:b:1", managed(importDep("g", "a", "1"))),
	}}
	_, err := NewPOMLoader(repo, nil).Load(context.Background(), manifest.MustParseCoordinate("g:a"), "1")
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestPOMLoaderNotFound(t *testing.T) {
	_, err := NewPOMLoader(&fakeRepo{}, nil).Load(context.Background(), manifest.MustParseCoordinate("g:missing"), "1")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func staticLoader(tables map[string]map[string]string, calls *int) Loader {
	return LoaderFunc(func(_ context.Context, c manifest.Coordinate, version string) (map[string]string, error) {
		if calls != nil {
			*calls++
		}
		if t, ok := tables[c.String()+":"+version]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s:%s", integrations.ErrNotFound, c, version)
	})
}

func TestApply(t *testing.T) {
	junit := manifest.MustParseCoordinate("org.junit:junit-bom")
	inline := manifest.Platform(manifest.MustParseCoordinate("org.acme:inline"), map[string]string{"x": "1"})
	disabled := manifest.Entry{Kind: manifest.KindPlatform, Coordinate: manifest.MustParseCoordinate("org.acme:off"), Version: "9", Disabled: true}
	imported := manifest.Entry{Kind: manifest.KindPlatform, Coordinate: junit, Version: "5.10.0"}
	d := manifest.Dependency(manifest.MustParseCoordinate("org.junit.jupiter:junit-jupiter-engine"), "", manifest.RoleTestOnly)

	input := []manifest.Entry{inline, disabled, imported, d}
	calls := 0
	loader := staticLoader(map[string]map[string]string{
		"org.junit:junit-bom:5.10.0": {"org.junit.jupiter:junit-jupiter-engine": "5.10.0"},
	}, &calls)

	out, err := Apply(context.Background(), loader, input)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
	if out[2].Versions["org.junit.jupiter:junit-jupiter-engine"] != "5.10.0" {
		t.Errorf("platform table not applied: %+v", out[2])
	}
	if input[2].Versions != nil {
		t.Error("Apply must not modify its input")
	}
	if out[1].Versions != nil {
		t.Error("disabled platform should not be loaded")
	}
	if !reflect.DeepEqual(out[0], inline) {
		t.Error("platform with an inline table should be untouched")
	}
}

func TestApplyErrors(t *testing.T) {
	platform := manifest.Entry{Kind: manifest.KindPlatform, Coordinate: manifest.MustParseCoordinate("org.acme:bom"), Version: "1"}

	tests := []struct {
		name   string
		loader Loader
		want   errs.Code
	}{
		{"no loader", nil, errs.ErrCodeBOMNotFound},
		{"not found", staticLoader(nil, nil), errs.ErrCodeBOMNotFound},
		{"network", LoaderFunc(func(context.Context, manifest.Coordinate, string) (map[string]string, error) {
			return nil, fmt.Errorf("%w: status 502", integrations.ErrNetwork)
		}), errs.ErrCodeNetwork},
		{"timeout", LoaderFunc(func(context.Context, manifest.Coordinate, string) (map[string]string, error) {
			return nil, context.DeadlineExceeded
		}), errs.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(context.Background(), tt.loader, []manifest.Entry{platform})
			if got := errs.GetCode(err); got != tt.want {
				t.Errorf("code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestChainLoader(t *testing.T) {
	coord := manifest.MustParseCoordinate("org.acme:bom")
	first := staticLoader(nil, nil)
	second := staticLoader(map[string]map[string]string{"org.acme:bom:1": {"a": "1"}}, nil)

	got, err := NewChainLoader(first, nil, second).Load(context.Background(), coord, "1")
	if err != nil || got["a"] != "1" {
		t.Fatalf("Load() = %v, %v", got, err)
	}

	_, err = NewChainLoader(first).Load(context.Background(), coord, "2")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	boom := errors.New("boom")
	failing := LoaderFunc(func(context.Context, manifest.Coordinate, string) (map[string]string, error) { return nil, boom })
	if _, err := NewChainLoader(failing, second).Load(context.Background(), coord, "1"); !errors.Is(err, boom) {
		t.Errorf("non-not-found errors should stop the chain, got %v", err)
	}
}

func TestCachedLoader(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	inner := staticLoader(map[string]map[string]string{"org.acme:bom:1": {"a": "1"}}, &calls)
	loader := NewCachedLoader(inner, c, nil, time.Hour)
	coord := manifest.MustParseCoordinate("org.acme:bom")

	for range 3 {
		got, err := loader.Load(context.Background(), coord, "1")
		if err != nil || got["a"] != "1" {
			t.Fatalf("Load() = %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("inner loader called %d times, want 1", calls)
	}
}

func TestSourceOf(t *testing.T) {
	remote := NewMavenLoader(maven.NewClient(nil, time.Hour, "https://repo.example.com/maven2/"), nil)
	local := NewFileLoader("/tmp/m2", nil)

	tests := []struct {
		name   string
		loader Loader
		want   string
	}{
		{"remote", remote, "https://repo.example.com/maven2"},
		{"local", local, "file:///tmp/m2"},
		{"chain", NewChainLoader(local, remote), "file:///tmp/m2,https://repo.example.com/maven2"},
		{"cached", NewCachedLoader(remote, nil, nil, time.Hour), "https://repo.example.com/maven2"},
		{"func", LoaderFunc(nil), "bom.LoaderFunc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceOf(tt.loader); got != tt.want {
				t.Errorf("SourceOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

const testCatalog = `
[versions]
mybatis = "3.5.13"
junit = { strictly = "5.10.0" }

[libraries]
microsphere-java-dependencies = { module = "io.github.microsphere-projects:microsphere-java-dependencies", version = "0.0.9" }
mybatis = { module = "org.mybatis:mybatis", version.ref = "mybatis" }
junit-jupiter-engine = { group = "org.junit.jupiter", name = "junit-jupiter-engine", version.ref = "junit" }
h2 = { module = "com.h2database:h2" }
logback-classic = "ch.qos.logback:logback-classic:1.4.14"

[bundles]
testing = ["junit-jupiter-engine", "h2"]
`

func mustParse(t *testing.T) *Catalog {
	t.Helper()
	c, err := Parse([]byte(testCatalog), "libs")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return c
}

func TestParse(t *testing.T) {
	c := mustParse(t)

	tests := []struct {
		ref         string
		wantCoord   string
		wantVersion string
	}{
		{"libs.mybatis", "org.mybatis:mybatis", "3.5.13"},
		{"mybatis", "org.mybatis:mybatis", "3.5.13"},
		{"libs.junit.jupiter.engine", "org.junit.jupiter:junit-jupiter-engine", "5.10.0"},
		{"junit_jupiter_engine", "org.junit.jupiter:junit-jupiter-engine", "5.10.0"},
		{"libs.h2", "com.h2database:h2", ""},
		{"libs.logback.classic", "ch.qos.logback:logback-classic", "1.4.14"},
		{"libs.microsphere.java.dependencies", "io.github.microsphere-projects:microsphere-java-dependencies", "0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			lib, ok := c.Lookup(tt.ref)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.ref)
			}
			if lib.Coordinate.String() != tt.wantCoord {
				t.Errorf("Coordinate = %s, want %s", lib.Coordinate, tt.wantCoord)
			}
			if lib.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", lib.Version, tt.wantVersion)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad toml", `[libraries`},
		{"unknown version ref", "[libraries]\na = { module = \"g:a\", version.ref = \"nope\" }"},
		{"missing module", "[libraries]\na = { version = \"1\" }"},
		{"bare artifact notation", "[libraries]\na = \"artifact\""},
		{"unknown bundle member", "[libraries]\na = \"g:a:1\"\n[bundles]\nb = [\"zzz\"]"},
		{"empty rich version", "[versions]\nv = { reject = \"1\" }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml), "libs")
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !errs.Is(err, errs.ErrCodeInvalidCatalog) {
				t.Errorf("code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidCatalog)
			}
		})
	}
}

func TestBundle(t *testing.T) {
	c := mustParse(t)
	libs, ok := c.Bundle("libs.bundles.testing")
	if !ok {
		t.Fatal("Bundle not found")
	}
	if len(libs) != 2 || libs[0].Alias != "junit-jupiter-engine" || libs[1].Alias != "h2" {
		t.Errorf("Bundle = %+v", libs)
	}
	if _, ok := c.Bundle("libs.mybatis"); ok {
		t.Error("Bundle(libs.mybatis) should not be found")
	}
}

func TestAliases(t *testing.T) {
	got := mustParse(t).Aliases()
	want := []string{"h2", "junit-jupiter-engine", "logback-classic", "microsphere-java-dependencies", "mybatis"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aliases() = %v, want %v", got, want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.versions.toml")
	if err := os.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Name != "deps" {
		t.Errorf("Name = %q, want deps", c.Name)
	}
	if !c.IsReference("deps.mybatis") || c.IsReference("libs.mybatis") {
		t.Error("IsReference should follow the catalog name")
	}
}

func TestNameFromPath(t *testing.T) {
	tests := map[string]string{
		"gradle/libs.versions.toml": "libs",
		"tools.versions.toml":       "tools",
		"catalog.toml":              DefaultName,
	}
	for in, want := range tests {
		if got := NameFromPath(in); got != want {
			t.Errorf("NameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpand(t *testing.T) {
	c := mustParse(t)
	entries := []manifest.Entry{
		{Kind: manifest.KindPlatform, Alias: "libs.microsphere.java.dependencies"},
		{Alias: "libs.mybatis", Role: manifest.RoleOptionalCompile},
		{Alias: "libs.bundles.testing", Role: manifest.RoleTestOnly},
		{Alias: "libs.logback.classic", Version: "1.5.0", Role: manifest.RoleCompileExport},
		manifest.Dependency(manifest.MustParseCoordinate("g:a"), "1", manifest.RoleCompileExport),
	}

	got, err := Expand(c, entries)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	want := []struct {
		coord   string
		version string
		role    manifest.Role
	}{
		{"io.github.microsphere-projects:microsphere-java-dependencies", "0.0.9", manifest.RoleUnknown},
		{"org.mybatis:mybatis", "3.5.13", manifest.RoleOptionalCompile},
		{"org.junit.jupiter:junit-jupiter-engine", "5.10.0", manifest.RoleTestOnly},
		{"com.h2database:h2", "", manifest.RoleTestOnly},
		{"ch.qos.logback:logback-classic", "1.5.0", manifest.RoleCompileExport},
		{"g:a", "1", manifest.RoleCompileExport},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Coordinate.String() != w.coord || got[i].Version != w.version || got[i].Role != w.role {
			t.Errorf("entry %d = %s:%s %v, want %s:%s %v", i, got[i].Coordinate, got[i].Version, got[i].Role, w.coord, w.version, w.role)
		}
	}
	if got[0].Kind != manifest.KindPlatform {
		t.Error("platform kind lost during expansion")
	}
}

func TestExpand_UnknownAlias(t *testing.T) {
	entries := []manifest.Entry{{Alias: "libs.nope", Role: manifest.RoleTestOnly, Source: "build.gradle.kts:3"}}

	_, err := Expand(mustParse(t), entries)
	if !errs.Is(err, errs.ErrCodeUnknownAlias) {
		t.Errorf("Expand() error = %v, want UNKNOWN_ALIAS", err)
	}

	_, err = Expand(nil, entries)
	if !errs.Is(err, errs.ErrCodeUnknownAlias) {
		t.Errorf("Expand(nil) error = %v, want UNKNOWN_ALIAS", err)
	}
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/depmanifest/pkg/bom"
	"github.com/matzehuels/depmanifest/pkg/cache"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/integrations"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

const buildScript = `
dependencies {
    implementation(platform(libs.microsphere.java.dependencies))
    "optionalApi"("io.github.microsphere-projects:microsphere-java-core")
    "optionalApi"(libs.mybatis)
    api(libs.junit.jupiter.engine)
    api(libs.h2)
    testImplementation(libs.logback.classic)
}
`

const versionCatalog = `
[versions]
microsphere = "0.0.1"
mybatis = "3.5.15"

[libraries]
microsphere-java-dependencies = { module = "io.github.microsphere-projects:microsphere-java-dependencies", version.ref = "microsphere" }
mybatis = { module = "org.mybatis:mybatis", version.ref = "mybatis" }
junit-jupiter-engine = { module = "org.junit.jupiter:junit-jupiter-engine" }
h2 = "com.h2database:h2:2.2.224"
logback-classic = { module = "ch.qos.logback:logback-classic" }
`

var microsphereBOM = map[string]string{
	"io.github.microsphere-projects:microsphere-java-core": "0.0.1",
	"org.junit.jupiter":              "5.10.2",
	"ch.qos.logback:logback-classic": "1.4.14",
	"com.h2database:h2":              "2.1.214",
}

// writeProject lays out a root project with the version catalog and a
// subproject holding the build script.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "gradle", "libs.versions.toml"), versionCatalog)
	path := filepath.Join(root, "microsphere-mybatis-test", "build.gradle.kts")
	mustWrite(t, path, buildScript)
	return path
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// countingLoader serves microsphereBOM and counts calls.
func countingLoader(calls *int) bom.Loader {
	return bom.LoaderFunc(func(ctx context.Context, c manifest.Coordinate, version string) (map[string]string, error) {
		*calls++
		if c.Artifact != "microsphere-java-dependencies" {
			return nil, integrations.ErrNotFound
		}
		return microsphereBOM, nil
	})
}

func newTestRunner(t *testing.T) (*Runner, *int) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	calls := new(int)
	r := NewRunner(c, nil, nil)
	r.Local = countingLoader(calls)
	return r, calls
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errs.Code
	}{
		{"path", Options{Path: "app/build.gradle.kts"}, ""},
		{"inline", Options{Manifest: "dependencies: []", ManifestFilename: "depmanifest.yaml"}, ""},
		{"neither", Options{}, errs.ErrCodeInvalidInput},
		{"both", Options{Path: "pom.xml", Manifest: "x", ManifestFilename: "pom.xml"}, errs.ErrCodeInvalidInput},
		{"inline without filename", Options{Manifest: "x"}, errs.ErrCodeInvalidInput},
		{"filename with path", Options{Manifest: "x", ManifestFilename: "../pom.xml"}, errs.ErrCodeInvalidManifest},
		{"both catalogs", Options{Path: "pom.xml", Catalog: "x", CatalogPath: "libs.versions.toml"}, errs.ErrCodeInvalidInput},
		{"bad role", Options{Path: "pom.xml", Roles: []string{"runtime"}}, errs.ErrCodeInvalidRole},
		{"bad configuration role", Options{Path: "pom.xml", Configurations: map[string]string{"kapt": "nope"}}, errs.ErrCodeInvalidRole},
		{"oversized", Options{Manifest: strings.Repeat("x", MaxManifestSize+1), ManifestFilename: "pom.xml"}, errs.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults() error = %v", err)
				}
				if tt.opts.Logger == nil {
					t.Error("Logger not defaulted")
				}
				return
			}
			if !errs.Is(err, tt.wantErr) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want code %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAndSetDefaults_Filename(t *testing.T) {
	opts := Options{Path: filepath.Join("app", "pom.xml")}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.ManifestFilename != "pom.xml" {
		t.Errorf("ManifestFilename = %q, want pom.xml", opts.ManifestFilename)
	}
}

func TestParseConfigurations(t *testing.T) {
	got, err := ParseConfigurations(map[string]string{"kapt": "optional-compile"})
	if err != nil {
		t.Fatal(err)
	}
	if got["kapt"] != manifest.RoleOptionalCompile {
		t.Errorf("kapt = %v, want optional-compile", got["kapt"])
	}
	if got, _ := ParseConfigurations(nil); got != nil {
		t.Errorf("ParseConfigurations(nil) = %v, want nil", got)
	}
}

func TestFindCatalog(t *testing.T) {
	path := writeProject(t)
	root := filepath.Dir(filepath.Dir(path))

	if got := FindCatalog(filepath.Dir(path)); got != filepath.Join(root, CatalogFile) {
		t.Errorf("FindCatalog() = %q", got)
	}
	if got := FindCatalog(t.TempDir()); got != "" {
		t.Errorf("FindCatalog() in empty dir = %q, want empty", got)
	}
}

func TestRunner_ResolveGradle(t *testing.T) {
	r, _ := newTestRunner(t)

	result, err := r.Resolve(context.Background(), Options{Path: writeProject(t)})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if result.Project != "microsphere-mybatis-test" {
		t.Errorf("Project = %q", result.Project)
	}
	if result.ManifestType != "build.gradle.kts" {
		t.Errorf("ManifestType = %q", result.ManifestType)
	}
	if result.Platform == nil || result.Platform.Coordinate.Artifact != "microsphere-java-dependencies" || result.Platform.Managed != len(microsphereBOM) {
		t.Errorf("Platform = %+v", result.Platform)
	}

	want := []string{
		"io.github.microsphere-projects:microsphere-java-core:0.0.1 optional-compile managed",
		"org.mybatis:mybatis:3.5.15 optional-compile",
		"org.junit.jupiter:junit-jupiter-engine:5.10.2 compile-and-export managed",
		"com.h2database:h2:2.2.224 compile-and-export",
		"ch.qos.logback:logback-classic:1.4.14 test-only managed",
	}
	if len(result.Dependencies) != len(want) {
		t.Fatalf("got %d dependencies, want %d: %v", len(result.Dependencies), len(want), result.Dependencies)
	}
	for i, d := range result.Dependencies {
		got := d.String() + " " + d.Role.String()
		if d.Managed {
			got += " managed"
		}
		if got != want[i] {
			t.Errorf("dependency[%d] = %q, want %q", i, got, want[i])
		}
	}
	if result.Stats.Entries != 6 || result.Stats.Dependencies != 5 {
		t.Errorf("Stats = %+v", result.Stats)
	}
}

func TestRunner_RoleFilter(t *testing.T) {
	r, _ := newTestRunner(t)

	result, err := r.Resolve(context.Background(), Options{Path: writeProject(t), Roles: []string{"test-only"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dependencies) != 1 || result.Dependencies[0].Coordinate.Artifact != "logback-classic" {
		t.Errorf("Dependencies = %v, want only logback-classic", result.Dependencies)
	}
}

func TestRunner_Cache(t *testing.T) {
	r, calls := newTestRunner(t)
	path := writeProject(t)
	ctx := context.Background()

	first, err := r.Resolve(ctx, Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ResolveHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Resolve(ctx, Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ResolveHit {
		t.Error("second run should hit the cache")
	}
	if len(second.Dependencies) != len(first.Dependencies) || second.Dependencies[2] != first.Dependencies[2] {
		t.Errorf("cached result differs: %v vs %v", second.Dependencies, first.Dependencies)
	}

	// Refresh recomputes, but the BOM table is still cached.
	third, err := r.Resolve(ctx, Options{Path: path, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ResolveHit {
		t.Error("refresh should bypass the result cache")
	}
	if *calls != 1 {
		t.Errorf("loader called %d times, want 1", *calls)
	}

	// Different options key a different result.
	filtered, err := r.Resolve(ctx, Options{Path: path, Roles: []string{"optional"}})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.CacheInfo.ResolveHit || len(filtered.Dependencies) != 2 {
		t.Errorf("filtered run: hit=%v deps=%d", filtered.CacheInfo.ResolveHit, len(filtered.Dependencies))
	}
}

func TestRunner_CacheKeyedByDirectory(t *testing.T) {
	r, _ := newTestRunner(t)
	root := t.TempDir()
	content := `
platforms:
  - coordinate: org.junit:junit-bom
    versions:
      org.junit.jupiter: 5.10.0
dependencies:
  - coordinate: org.junit.jupiter:junit-jupiter
    role: test-only
`
	alpha := filepath.Join(root, "alpha", "depmanifest.yaml")
	beta := filepath.Join(root, "beta", "depmanifest.yaml")
	mustWrite(t, alpha, content)
	mustWrite(t, beta, content)
	ctx := context.Background()

	first, err := r.Resolve(ctx, Options{Path: alpha})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx, Options{Path: beta})
	if err != nil {
		t.Fatal(err)
	}
	if first.Project != "alpha" || second.Project != "beta" {
		t.Errorf("Project = %q, %q, want alpha, beta", first.Project, second.Project)
	}
	if second.CacheInfo.ResolveHit {
		t.Error("identical manifest in another directory should miss the cache")
	}

	again, err := r.Resolve(ctx, Options{Path: beta})
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.ResolveHit || again.Project != "beta" {
		t.Errorf("repeat run: hit=%v project=%q", again.CacheInfo.ResolveHit, again.Project)
	}
}

func TestRunner_CacheKeyedByBOMSource(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeProject(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		dir     string
		wantHit bool
	}{
		{"first repository", "/repo/one", false},
		{"same repository", "/repo/one", true},
		{"other repository", "/repo/two", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(c, nil, nil)
			r.Local = bom.NewFileLoader(tt.dir, nil)
			// Neither directory exists; the table comes from Remote.
			calls := 0
			r.Remote = countingLoader(&calls)
			result, err := r.Resolve(ctx, Options{Path: path})
			if err != nil {
				t.Fatal(err)
			}
			if result.CacheInfo.ResolveHit != tt.wantHit {
				t.Errorf("ResolveHit = %v, want %v", result.CacheInfo.ResolveHit, tt.wantHit)
			}
		})
	}
}

func TestRunner_AmbiguousPlatformBeforeBOM(t *testing.T) {
	r, calls := newTestRunner(t)
	script := `
dependencies {
    implementation(platform("org.junit:junit-bom:5.10.2"))
    implementation(platform("org.springframework:spring-framework-bom:6.1.0"))
    testImplementation("org.junit.jupiter:junit-jupiter")
}
`
	path := filepath.Join(t.TempDir(), "app", "build.gradle.kts")
	mustWrite(t, path, script)

	_, err := r.Resolve(context.Background(), Options{Path: path})
	if !errs.Is(err, errs.ErrCodeAmbiguousPlatform) {
		t.Errorf("Resolve() error = %v, want AMBIGUOUS_PLATFORM", err)
	}
	if *calls != 0 {
		t.Errorf("BOM loader called %d times, want 0", *calls)
	}
}

func TestRunner_Offline(t *testing.T) {
	r, _ := newTestRunner(t)
	remote := 0
	r.Local = nil
	r.Remote = countingLoader(&remote)

	_, err := r.Resolve(context.Background(), Options{Path: writeProject(t), Offline: true})
	if !errs.Is(err, errs.ErrCodeBOMNotFound) {
		t.Errorf("offline error = %v, want BOM_NOT_FOUND", err)
	}
	if remote != 0 {
		t.Errorf("remote loader called %d times while offline", remote)
	}

	if _, err := r.Resolve(context.Background(), Options{Path: writeProject(t)}); err != nil {
		t.Errorf("online Resolve() error: %v", err)
	}
	if remote != 1 {
		t.Errorf("remote loader called %d times, want 1", remote)
	}
}

func TestRunner_Inline(t *testing.T) {
	r, _ := newTestRunner(t)

	manifestYAML := `
project: demo
platforms:
  - coordinate: org.junit:junit-bom
    versions:
      org.junit.jupiter: 5.10.0
dependencies:
  - coordinate: org.junit.jupiter:junit-jupiter
    role: test-only
  - alias: libs.mybatis
    role: optional-compile
`
	result, err := r.Resolve(context.Background(), Options{
		Manifest:         manifestYAML,
		ManifestFilename: "depmanifest.yaml",
		Catalog:          versionCatalog,
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if result.Project != "demo" || len(result.Dependencies) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if got := result.Dependencies[0].String(); got != "org.junit.jupiter:junit-jupiter:5.10.0" {
		t.Errorf("dependency[0] = %s", got)
	}
	if got := result.Dependencies[1].String(); got != "org.mybatis:mybatis:3.5.15" {
		t.Errorf("dependency[1] = %s", got)
	}
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  errs.Code
	}{
		{
			name: "ambiguous platform",
			manifest: `
platforms:
  - coordinate: a:bom
    versions: {x: "1"}
  - coordinate: b:bom
    versions: {x: "2"}
dependencies: []
`,
			wantErr: errs.ErrCodeAmbiguousPlatform,
		},
		{
			name: "unresolved version",
			manifest: `
dependencies:
  - coordinate: org.example:lib
    role: compile-and-export
`,
			wantErr: errs.ErrCodeUnresolvedVersion,
		},
		{
			name: "conflicting role",
			manifest: `
dependencies:
  - coordinate: org.example:lib:1.0
    role: compile-and-export
  - coordinate: org.example:lib:1.0
    role: test-only
`,
			wantErr: errs.ErrCodeConflictingRole,
		},
		{
			name: "unknown alias",
			manifest: `
dependencies:
  - alias: libs.nothing
    role: test-only
`,
			wantErr: errs.ErrCodeUnknownAlias,
		},
	}

	r, _ := newTestRunner(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), Options{Manifest: tt.manifest, ManifestFilename: "depmanifest.yaml"})
			if !errs.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want code %s", err, tt.wantErr)
			}
		})
	}
}

func TestRunner_MissingFile(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Resolve(context.Background(), Options{Path: filepath.Join(t.TempDir(), "pom.xml")})
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("Resolve() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRender(t *testing.T) {
	r, _ := newTestRunner(t)
	result, err := r.Resolve(context.Background(), Options{Path: writeProject(t)})
	if err != nil {
		t.Fatal(err)
	}

	data, err := Render(context.Background(), result, GraphOptions{Format: "dot"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(data)
	if !strings.Contains(dot, `"platform" [label="io.github.microsphere-projects:microsphere-java-dependencies:0.0.1"`) {
		t.Errorf("DOT missing platform node:\n%s", dot)
	}
	if !strings.Contains(dot, `"microsphere-mybatis-test" -> "org.mybatis:mybatis"`) {
		t.Errorf("DOT missing project edge:\n%s", dot)
	}

	if _, err := Render(context.Background(), result, GraphOptions{Format: "gif"}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) error = %v, want INVALID_FORMAT", err)
	}
}

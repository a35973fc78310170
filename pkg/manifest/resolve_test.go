package manifest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
)

func coord(s string) Coordinate { return MustParseCoordinate(s) }

func TestResolve_PlatformInheritance(t *testing.T) {
	entries := []Entry{
		Platform(coord("io.github.microsphere-projects:microsphere-java-dependencies"), map[string]string{"mybatis": "3.5.13"}),
		Dependency(coord("mybatis"), "", RoleOptionalCompile),
		Dependency(coord("junit-jupiter-engine"), "5.10.0", RoleCompileExport),
	}

	got, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []Resolved{
		{Coordinate: coord("mybatis"), Version: "3.5.13", Role: RoleOptionalCompile, Managed: true},
		{Coordinate: coord("junit-jupiter-engine"), Version: "5.10.0", Role: RoleCompileExport},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolve_LookupOrder(t *testing.T) {
	bom := Platform(coord("org.example:bom"), map[string]string{
		"org.mybatis:mybatis": "3.5.13",
		"org.mybatis":         "9.9.9",
		"org.junit.jupiter":   "5.10.0",
		"h2":                  "2.2.224",
	})

	tests := []struct {
		coord string
		want  string
	}{
		{"org.mybatis:mybatis", "3.5.13"},       // exact coordinate wins over group
		{"org.mybatis:mybatis-spring", "9.9.9"}, // group fallback
		{"org.junit.jupiter:junit-jupiter-engine", "5.10.0"},
		{"com.h2database:h2", "2.2.224"}, // artifact fallback
	}

	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			got, err := Resolve([]Entry{bom, Dependency(coord(tt.coord), "", RoleCompileExport)})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got[0].Version != tt.want {
				t.Errorf("version = %q, want %q", got[0].Version, tt.want)
			}
		})
	}
}

func TestResolve_ExplicitVersionWins(t *testing.T) {
	entries := []Entry{
		Platform(coord("org.example:bom"), map[string]string{"org.mybatis:mybatis": "3.5.13"}),
		Dependency(coord("org.mybatis:mybatis"), "3.4.0", RoleOptionalCompile),
	}
	got, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got[0].Version != "3.4.0" || got[0].Managed {
		t.Errorf("got %+v, want explicit 3.4.0 unmanaged", got[0])
	}
}

func TestResolve_AmbiguousPlatform(t *testing.T) {
	entries := []Entry{
		Platform(coord("org.example:bom-a"), nil),
		Dependency(coord("org.example:lib"), "1.0", RoleCompileExport),
		Platform(coord("org.example:bom-b"), nil),
	}

	_, err := Resolve(entries)
	var ambiguous *AmbiguousPlatformError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Resolve() error = %v, want AmbiguousPlatformError", err)
	}
	if ambiguous.First != coord("org.example:bom-a") || ambiguous.Second != coord("org.example:bom-b") {
		t.Errorf("platforms = %s, %s", ambiguous.First, ambiguous.Second)
	}
	if !errs.Is(err, errs.ErrCodeAmbiguousPlatform) {
		t.Errorf("code = %v, want %v", errs.GetCode(err), errs.ErrCodeAmbiguousPlatform)
	}
}

func TestResolve_DisabledPlatformIsNotActive(t *testing.T) {
	disabled := Platform(coord("org.example:old-bom"), map[string]string{"org.example:lib": "0.1"})
	disabled.Disabled = true

	entries := []Entry{
		disabled,
		Platform(coord("org.example:bom"), map[string]string{"org.example:lib": "1.0"}),
		Dependency(coord("org.example:lib"), "", RoleCompileExport),
	}
	got, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got[0].Version != "1.0" {
		t.Errorf("version = %q, want 1.0 from the active platform", got[0].Version)
	}
}

func TestResolve_UnresolvedVersion(t *testing.T) {
	tests := []struct {
		name         string
		entries      []Entry
		wantPlatform Coordinate
	}{
		{
			name:    "no platform",
			entries: []Entry{Dependency(coord("org.example:lib"), "", RoleCompileExport)},
		},
		{
			name: "platform does not manage coordinate",
			entries: []Entry{
				Platform(coord("org.example:bom"), map[string]string{"other": "1.0"}),
				Dependency(coord("org.example:lib"), "", RoleCompileExport),
			},
			wantPlatform: coord("org.example:bom"),
		},
		{
			name: "empty managed version",
			entries: []Entry{
				Platform(coord("org.example:bom"), map[string]string{"org.example:lib": ""}),
				Dependency(coord("org.example:lib"), "", RoleCompileExport),
			},
			wantPlatform: coord("org.example:bom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.entries)
			var unresolved *UnresolvedVersionError
			if !errors.As(err, &unresolved) {
				t.Fatalf("Resolve() error = %v, want UnresolvedVersionError", err)
			}
			if unresolved.Coordinate != coord("org.example:lib") {
				t.Errorf("Coordinate = %s, want org.example:lib", unresolved.Coordinate)
			}
			if unresolved.Platform != tt.wantPlatform {
				t.Errorf("Platform = %s, want %s", unresolved.Platform, tt.wantPlatform)
			}
		})
	}
}

func TestResolve_ConflictingRole(t *testing.T) {
	entries := []Entry{
		Dependency(coord("h2"), "2.2.224", RoleCompileExport),
		Dependency(coord("h2"), "2.2.224", RoleTestOnly),
	}

	got, err := Resolve(entries)
	if got != nil {
		t.Errorf("Resolve() returned partial result %v", got)
	}
	var conflict *ConflictingRoleError
	if !errors.As(err, &conflict) {
		t.Fatalf("Resolve() error = %v, want ConflictingRoleError", err)
	}
	want := ConflictingRoleError{Coordinate: coord("h2"), First: RoleCompileExport, Second: RoleTestOnly}
	if *conflict != want {
		t.Errorf("error = %+v, want %+v", *conflict, want)
	}
}

func TestResolve_FirstErrorInInputOrder(t *testing.T) {
	entries := []Entry{
		Dependency(coord("org.example:a"), "1.0", RoleCompileExport),
		Dependency(coord("org.example:missing"), "", RoleCompileExport),
		Dependency(coord("org.example:a"), "1.0", RoleTestOnly),
	}
	_, err := Resolve(entries)
	if !errs.Is(err, errs.ErrCodeUnresolvedVersion) {
		t.Errorf("Resolve() error = %v, want the unresolved version reported first", err)
	}
}

func TestResolve_DuplicatesCollapse(t *testing.T) {
	entries := []Entry{
		Dependency(coord("org.example:a"), "1.0", RoleCompileExport),
		Dependency(coord("org.example:b"), "2.0", RoleTestOnly),
		Dependency(coord("org.example:a"), "1.0", RoleCompileExport),
	}
	got, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Coordinate != coord("org.example:a") || got[1].Coordinate != coord("org.example:b") {
		t.Errorf("order = %v, want first-seen order", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	entries := []Entry{
		Platform(coord("org.example:bom"), map[string]string{"org.example": "1.2.3"}),
		Dependency(coord("org.example:a"), "", RoleOptionalCompile),
		Dependency(coord("org.example:b"), "4.0", RoleCompileExport),
		Dependency(coord("org.example:c"), "", RoleTestOnly),
	}
	first, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() not idempotent: %v != %v", first, second)
	}
}

func TestResolve_OneRecordPerUniqueCoordinate(t *testing.T) {
	var entries []Entry
	for _, c := range []string{"g:a", "g:b", "g:a", "g:c", "g:b"} {
		entries = append(entries, Dependency(coord(c), "1", RoleCompileExport))
	}
	got, err := Resolve(entries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestResolve_InvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"empty coordinate", Dependency(Coordinate{}, "1.0", RoleCompileExport)},
		{"missing role", Dependency(coord("g:a"), "1.0", RoleUnknown)},
		{"unexpanded alias", Entry{Alias: "libs.mybatis", Role: RoleOptionalCompile}},
		{"bad kind", Entry{Kind: Kind(7), Coordinate: coord("g:a"), Role: RoleTestOnly}},
		{"bad coordinate", Dependency(Coordinate{Group: "g", Artifact: "a b"}, "1", RoleTestOnly)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve([]Entry{tt.entry})
			var invalid *InvalidEntryError
			if !errors.As(err, &invalid) {
				t.Fatalf("Resolve() error = %v, want InvalidEntryError", err)
			}
			if invalid.Index != 0 {
				t.Errorf("Index = %d, want 0", invalid.Index)
			}
			if code := errs.GetCode(err); code != errs.ErrCodeInvalidManifest {
				t.Errorf("GetCode() = %s, want INVALID_MANIFEST", code)
			}
			if msg := errs.UserMessage(err); !strings.HasPrefix(msg, "entry 0") {
				t.Errorf("UserMessage() = %q, want entry location", msg)
			}
		})
	}
}

func TestResolve_Empty(t *testing.T) {
	got, err := Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve(nil) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Resolve(nil) = %v, want empty", got)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	versions := map[string]string{"g": "1.0"}
	entries := []Entry{
		Platform(coord("g:bom"), versions),
		Dependency(coord("g:a"), "", RoleCompileExport),
	}
	if _, err := Resolve(entries); err != nil {
		t.Fatal(err)
	}
	if entries[1].Version != "" {
		t.Errorf("entry version mutated to %q", entries[1].Version)
	}
	if len(versions) != 1 {
		t.Errorf("platform table mutated: %v", versions)
	}
}

func TestFilter(t *testing.T) {
	deps := []Resolved{
		{Coordinate: coord("g:a"), Version: "1", Role: RoleCompileExport},
		{Coordinate: coord("g:b"), Version: "1", Role: RoleTestOnly},
		{Coordinate: coord("g:c"), Version: "1", Role: RoleOptionalCompile},
	}

	if got := Filter(deps); len(got) != 3 {
		t.Errorf("Filter() len = %d, want 3", len(got))
	}
	got := Filter(deps, RoleTestOnly, RoleOptionalCompile)
	if len(got) != 2 || got[0].Coordinate != coord("g:b") || got[1].Coordinate != coord("g:c") {
		t.Errorf("Filter(test, optional) = %v", got)
	}
}

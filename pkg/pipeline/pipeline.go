// Package pipeline runs the complete resolution pipeline shared by the
// CLI and the HTTP API.
//
// # Stages
//
//  1. Parse: read the manifest (file or inline content) with package source
//  2. Expand: replace version catalog aliases (package catalog)
//  3. BOM: load platform version tables (package bom)
//  4. Resolve: manifest.Resolve, then the optional role filter
//
// Results are cached by a hash of every input, so re-running an unchanged
// manifest costs one cache lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	runner.Remote = bom.NewMavenLoader(maven.NewClient(c, ttl, ""), logger)
//	result, err := runner.Resolve(ctx, pipeline.Options{Path: "build.gradle.kts"})
//	for _, d := range result.Dependencies {
//	    fmt.Println(d.Coordinate, d.Version, d.Role)
//	}
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultCacheTTL is how long resolution results and BOM tables stay cached.
	DefaultCacheTTL = 24 * time.Hour

	// MaxManifestSize bounds inline manifest and catalog content.
	MaxManifestSize = 1 << 20
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one resolution.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Path reads the manifest from disk. Mutually exclusive with Manifest.
	Path string `json:"-"`

	// Manifest is inline manifest content; ManifestFilename selects the parser.
	Manifest         string `json:"manifest,omitempty"`
	ManifestFilename string `json:"filename,omitempty"`

	// CatalogPath reads a version catalog from disk. When both CatalogPath
	// and Catalog are empty and Path is set, gradle/libs.versions.toml is
	// looked up next to the manifest and in its parent directories.
	CatalogPath string `json:"-"`
	Catalog     string `json:"catalog,omitempty"`

	// Roles keeps only dependencies with one of these roles.
	Roles []string `json:"roles,omitempty"`

	// Configurations overrides the Gradle configuration to role mapping.
	Configurations map[string]string `json:"configurations,omitempty"`

	// Offline restricts BOM lookups to the local repository.
	Offline bool `json:"offline,omitempty"`

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	roles     []manifest.Role
	confs     map[string]manifest.Role
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Project is the declaring project, from the manifest or its directory.
	Project string `json:"project,omitempty"`

	// ManifestType is the kind of manifest read, e.g. "build.gradle.kts".
	ManifestType string `json:"manifest_type"`

	// Platform is the active platform, nil when none was declared.
	Platform *Platform `json:"platform,omitempty"`

	// Dependencies are the resolved records in first-seen order.
	Dependencies []manifest.Resolved `json:"dependencies"`

	// Stats contains timing and size information.
	Stats Stats `json:"-"`

	// CacheInfo tracks whether the result came from cache.
	CacheInfo CacheInfo `json:"-"`
}

// Platform describes the active platform of a resolution.
type Platform struct {
	Coordinate manifest.Coordinate `json:"coordinate"`
	Version    string              `json:"version,omitempty"`
	Managed    int                 `json:"managed"` // size of its version table
}

// String returns "group:artifact:version", or "" for a nil platform.
func (p *Platform) String() string {
	if p == nil {
		return ""
	}
	if p.Version == "" {
		return p.Coordinate.String()
	}
	return p.Coordinate.String() + ":" + p.Version
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Entries      int
	Dependencies int
	ParseTime    time.Duration
	BOMTime      time.Duration
	ResolveTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ResolveHit bool // Whether the whole result came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	switch {
	case o.Path == "" && o.Manifest == "":
		return errs.New(errs.ErrCodeInvalidInput, "path or manifest is required")
	case o.Path != "" && o.Manifest != "":
		return errs.New(errs.ErrCodeInvalidInput, "path and manifest are mutually exclusive")
	case o.Manifest != "" && o.ManifestFilename == "":
		return errs.New(errs.ErrCodeInvalidInput, "filename is required with inline manifest content")
	case len(o.Manifest) > MaxManifestSize || len(o.Catalog) > MaxManifestSize:
		return errs.New(errs.ErrCodeInvalidInput, "manifest or catalog exceeds %d bytes", MaxManifestSize)
	case o.Catalog != "" && o.CatalogPath != "":
		return errs.New(errs.ErrCodeInvalidInput, "catalog and catalog path are mutually exclusive")
	}
	if o.Path != "" && o.ManifestFilename == "" {
		o.ManifestFilename = filepath.Base(o.Path)
	}
	if err := errs.ValidateManifestFilename(o.ManifestFilename); err != nil {
		return err
	}

	roles, err := ParseRoles(o.Roles)
	if err != nil {
		return err
	}
	o.roles = roles

	confs, err := ParseConfigurations(o.Configurations)
	if err != nil {
		return err
	}
	o.confs = confs

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ParseRoles parses role filter names.
func ParseRoles(names []string) ([]manifest.Role, error) {
	roles := make([]manifest.Role, 0, len(names))
	for _, n := range names {
		r, err := manifest.ParseRole(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// ParseConfigurations parses a Gradle configuration to role-name mapping.
func ParseConfigurations(m map[string]string) (map[string]manifest.Role, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]manifest.Role, len(m))
	for conf, name := range m {
		r, err := manifest.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("configuration %s: %w", conf, err)
		}
		out[conf] = r
	}
	return out, nil
}

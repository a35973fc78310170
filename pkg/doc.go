// Package pkg provides the core libraries for depmanifest dependency resolution.
//
// # Overview
//
// depmanifest reads a dependency manifest, inherits versions from the active
// platform (a BOM import), and produces a deduplicated, ordered list of
// dependencies annotated with their role and effective version. The pkg
// directory is organized into four main areas:
//
//  1. [manifest] - Domain logic (entries, roles, the Resolve operation)
//  2. [source], [catalog], [bom] - Inputs (manifest parsers, version catalogs, BOM tables)
//  3. [cache], [storage], [integrations] - Infrastructure (caching, run history, Maven repositories)
//  4. [pipeline] - Orchestration (parse → expand → BOM → resolve)
//
// # Architecture
//
// The typical data flow through depmanifest:
//
//	build.gradle.kts / pom.xml / depmanifest.yaml
//	         ↓
//	    [source] package (parse entries)
//	         ↓
//	    [catalog] package (expand libs.* aliases)
//	         ↓
//	    [bom] package (load platform version tables)
//	         ↓
//	    [manifest] package (Resolve)
//	         ↓
//	    [io] / [render] (text, JSON, YAML, lock, DOT, SVG, PNG)
//
// # Quick Start
//
// Resolve a manifest with the pipeline:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/depmanifest/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Resolve(context.Background(), pipeline.Options{
//	    Path: "microsphere-mybatis-test/build.gradle.kts",
//	})
//
// Or call the resolver directly with entries built in code:
//
//	deps, err := manifest.Resolve([]manifest.Entry{
//	    {Kind: manifest.KindPlatform, Coordinate: bom, Versions: table},
//	    {Kind: manifest.KindDependency, Coordinate: h2, Role: manifest.RoleCompileExport},
//	})
//
// # Main Packages
//
// [manifest] - Coordinates, roles, entries and the pure Resolve operation with
// its typed errors (ambiguous platform, unresolved version, conflicting role).
//
// [source] - Manifest parsers: Gradle Kotlin/Groovy build scripts, Maven POMs,
// and declarative YAML/JSON/TOML manifests.
//
// [catalog] - Gradle version catalogs (libs.versions.toml) and alias expansion.
//
// [bom] - Version tables for platforms declared without one, loaded from a
// local or remote Maven repository.
//
// [pipeline] - The complete resolution pipeline used by the CLI and the API.
// Ensures consistent behavior across both entry points.
//
// [io] - Output writers (text, JSON, YAML, lockfile) and lockfile diffing.
//
// [render] - Graphviz DOT graphs rendered to SVG or PNG.
//
// [cache] - Cache backends (file, Redis, null) and key derivation.
//
// [storage] - Run history backends (memory, file, MongoDB).
//
// [integrations] - HTTP client with caching and retry, and the Maven
// repository client.
//
// [errors] - Machine-readable error codes shared by the CLI and the API.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/manifest/...           # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [manifest]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/manifest
// [source]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/source
// [catalog]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/catalog
// [bom]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/bom
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/storage
// [integrations]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/integrations
// [errors]: https://pkg.go.dev/github.com/matzehuels/depmanifest/pkg/errors
package pkg

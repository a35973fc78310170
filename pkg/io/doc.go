// Package io writes resolved dependency lists and reads them back.
//
// # Formats
//
//   - json: {"project", "platform", "dependencies": [{coordinate, version, role}]}
//   - yaml: the same document as YAML
//   - text: one aligned "group:artifact:version  role" line per dependency
//   - lock: sorted "group:artifact:version=role" lines, Gradle lockfile style
//
// JSON, YAML and text keep resolution order. The lock format is sorted so
// that lockfiles diff cleanly under version control.
//
// # Lockfiles
//
// [ReadLock] parses a lockfile and [Diff] compares it with a fresh result:
//
//	locked, err := io.ReadLock(f)
//	for _, c := range io.Diff(locked, result.Dependencies) {
//	    fmt.Println(c)
//	}
package io

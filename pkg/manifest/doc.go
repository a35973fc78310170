// Package manifest resolves dependency declarations into versioned,
// role-annotated records.
//
// # Overview
//
// A manifest is an ordered list of [Entry] values. Each entry is either a
// platform (a BOM that supplies default versions) or a dependency with a
// [Role]. [Resolve] turns the entries into a deduplicated list of [Resolved]
// records:
//
//  1. At most one platform may be active; two active platforms fail with
//     [AmbiguousPlatformError].
//  2. Each dependency takes its explicit version, or the version the active
//     platform manages for it. Neither fails with [UnresolvedVersionError].
//  3. A coordinate declared twice with different roles fails with
//     [ConflictingRoleError]; identical declarations collapse to one record.
//  4. Output keeps first-seen order.
//
// Resolution is a pure function. It performs no I/O, keeps no state between
// calls, and either returns every record or the first error found while
// scanning the input in order.
//
// # Platform Version Tables
//
// A platform's Versions map is keyed by any of:
//
//   - "group:artifact" for a single managed artifact
//   - "group" for every artifact in a group
//   - "artifact" for coordinates declared without a group
//
// Lookups try the keys in that order.
//
// # Roles
//
//   - [RoleOptionalCompile]: visible at compile time, not required by consumers
//   - [RoleCompileExport]: on the compile classpath and exported to consumers
//   - [RoleTestOnly]: test classpath only
//
// Loading entries from files (Gradle scripts, pom.xml, YAML) lives in
// package source; filling platform tables from BOM documents lives in
// package bom.
package manifest

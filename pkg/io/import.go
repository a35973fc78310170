package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// ReadLock parses lockfile lines of the form "group:artifact:version=role".
// Blank lines and lines starting with '#' are ignored.
//
// ReadLock returns an INVALID_MANIFEST error naming the line number if a
// line is malformed, has an unknown role, or repeats a coordinate.
func ReadLock(r io.Reader) ([]manifest.Resolved, error) {
	var (
		out  []manifest.Resolved
		seen = make(map[manifest.Coordinate]bool)
		sc   = bufio.NewScanner(r)
		n    = 0
	)
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := parseLockLine(line)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "lockfile line %d", n)
		}
		if seen[d.Coordinate] {
			return nil, errs.New(errs.ErrCodeInvalidManifest, "lockfile line %d: duplicate %s", n, d.Coordinate)
		}
		seen[d.Coordinate] = true
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}
	return out, nil
}

// ImportLock reads a lockfile from path.
func ImportLock(path string) ([]manifest.Resolved, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "lockfile %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLock(f)
}

func parseLockLine(line string) (manifest.Resolved, error) {
	gav, roleName, ok := strings.Cut(line, "=")
	if !ok {
		return manifest.Resolved{}, fmt.Errorf("missing '=role' in %q", line)
	}
	i := strings.LastIndex(gav, ":")
	if i <= 0 || i == len(gav)-1 {
		return manifest.Resolved{}, fmt.Errorf("missing version in %q", gav)
	}
	coord, _, err := manifest.ParseCoordinate(gav[:i])
	if err != nil {
		return manifest.Resolved{}, err
	}
	role, err := manifest.ParseRole(roleName)
	if err != nil {
		return manifest.Resolved{}, err
	}
	return manifest.Resolved{Coordinate: coord, Version: gav[i+1:], Role: role}, nil
}

// ChangeKind classifies a lockfile difference.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one difference between a locked and a resolved list.
type Change struct {
	Kind   ChangeKind
	Locked *manifest.Resolved // nil when added
	Actual *manifest.Resolved // nil when removed
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ %s=%s", c.Actual, c.Actual.Role)
	case Removed:
		return fmt.Sprintf("- %s=%s", c.Locked, c.Locked.Role)
	default:
		return fmt.Sprintf("~ %s=%s -> %s=%s", c.Locked, c.Locked.Role, c.Actual, c.Actual.Role)
	}
}

// Diff compares a locked list against a fresh resolution. Changes are
// reported in coordinate order: removed and changed entries by their
// locked position, then added entries. Managed flags are ignored.
func Diff(locked, actual []manifest.Resolved) []Change {
	byCoord := make(map[manifest.Coordinate]manifest.Resolved, len(actual))
	for _, d := range actual {
		byCoord[d.Coordinate] = d
	}

	var changes []Change
	inLock := make(map[manifest.Coordinate]bool, len(locked))
	for _, l := range sortedByCoordinate(locked) {
		inLock[l.Coordinate] = true
		a, ok := byCoord[l.Coordinate]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Removed, Locked: &l})
		case a.Version != l.Version || a.Role != l.Role:
			changes = append(changes, Change{Kind: Changed, Locked: &l, Actual: &a})
		}
	}
	for _, a := range sortedByCoordinate(actual) {
		if !inLock[a.Coordinate] {
			changes = append(changes, Change{Kind: Added, Actual: &a})
		}
	}
	return changes
}

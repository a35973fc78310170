package manifest

// Resolve turns manifest entries into resolved dependency records.
//
// Errors, checked in this order and reported for the first offending entry:
//   - [*InvalidEntryError] for malformed entries
//   - [*AmbiguousPlatformError] when two platforms are active
//   - [*UnresolvedVersionError] or [*ConflictingRoleError] while scanning
//     dependencies in input order
//
// On error no records are returned. Resolve does not modify entries.
func Resolve(entries []Entry) ([]Resolved, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}

	platform, err := ActivePlatform(entries)
	if err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(entries))
	index := make(map[Coordinate]int, len(entries))

	for _, e := range entries {
		if e.Kind != KindDependency {
			continue
		}

		version, managed := e.Version, false
		if version == "" {
			v, ok := "", false
			if platform != nil {
				v, ok = platform.Lookup(e.Coordinate)
			}
			if !ok {
				uerr := &UnresolvedVersionError{Coordinate: e.Coordinate}
				if platform != nil {
					uerr.Platform = platform.Coordinate
				}
				return nil, uerr
			}
			version, managed = v, true
		}

		if i, seen := index[e.Coordinate]; seen {
			if prev := out[i].Role; prev != e.Role {
				return nil, &ConflictingRoleError{Coordinate: e.Coordinate, First: prev, Second: e.Role}
			}
			continue
		}

		index[e.Coordinate] = len(out)
		out = append(out, Resolved{
			Coordinate: e.Coordinate,
			Version:    version,
			Role:       e.Role,
			Managed:    managed,
		})
	}

	return out, nil
}

// ActivePlatform returns the single active platform, nil when there is none.
// It fails with [*AmbiguousPlatformError] when two platforms are active, so
// callers can reject such input before loading any version table.
func ActivePlatform(entries []Entry) (*Entry, error) {
	var active *Entry
	for i := range entries {
		if !entries[i].Active() {
			continue
		}
		if active != nil {
			return nil, &AmbiguousPlatformError{First: active.Coordinate, Second: entries[i].Coordinate}
		}
		active = &entries[i]
	}
	return active, nil
}

// Validate reports the first malformed entry as an [*InvalidEntryError].
func Validate(entries []Entry) error {
	for i, e := range entries {
		invalid := func(reason string, cause error) error {
			return &InvalidEntryError{Index: i, Entry: e, Reason: reason, Cause: cause}
		}
		switch {
		case e.Coordinate.IsZero() && e.Alias != "":
			return invalid("catalog alias "+e.Alias+" was not expanded", nil)
		case e.Coordinate.IsZero():
			return invalid("empty coordinate", nil)
		case e.Kind != KindDependency && e.Kind != KindPlatform:
			return invalid("unknown entry kind", nil)
		case e.Kind == KindDependency && !e.Role.Valid():
			return invalid("dependency "+e.Coordinate.String()+" has no valid role", nil)
		}
		if err := e.Coordinate.Validate(); err != nil {
			return invalid("invalid coordinate", err)
		}
	}
	return nil
}

// Filter returns the records whose role is one of roles. With no roles it
// returns deps unchanged.
func Filter(deps []Resolved, roles ...Role) []Resolved {
	if len(roles) == 0 {
		return deps
	}
	want := make(map[Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	out := make([]Resolved, 0, len(deps))
	for _, d := range deps {
		if want[d.Role] {
			out = append(out, d)
		}
	}
	return out
}

package manifest

import (
	"fmt"
	"strings"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
)

// Coordinate identifies a dependency independently of its version.
// Two coordinates are the same dependency when both fields are equal.
type Coordinate struct {
	Group    string // e.g. "org.mybatis"; empty for bare artifact names
	Artifact string // e.g. "mybatis"; never empty in a valid coordinate
}

// String returns "group:artifact", or just the artifact when Group is empty.
func (c Coordinate) String() string {
	if c.Group == "" {
		return c.Artifact
	}
	return c.Group + ":" + c.Artifact
}

// IsZero reports whether c has no artifact.
func (c Coordinate) IsZero() bool { return c.Artifact == "" }

// Validate checks both coordinate parts.
func (c Coordinate) Validate() error {
	if c.Group != "" {
		if err := errs.ValidateCoordinatePart("group", c.Group); err != nil {
			return err
		}
	}
	return errs.ValidateCoordinatePart("artifact", c.Artifact)
}

// MarshalText encodes c as its string form.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "group:artifact" or "artifact". A version suffix is rejected.
func (c *Coordinate) UnmarshalText(text []byte) error {
	coord, version, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	if version != "" {
		return errs.New(errs.ErrCodeInvalidCoordinate, "unexpected version in coordinate %q", text)
	}
	*c = coord
	return nil
}

// ParseCoordinate parses "artifact", "group:artifact" or
// "group:artifact:version" and returns the coordinate and optional version.
func ParseCoordinate(s string) (Coordinate, string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")

	var (
		c       Coordinate
		version string
	)
	switch len(parts) {
	case 1:
		c.Artifact = parts[0]
	case 2:
		c.Group, c.Artifact = parts[0], parts[1]
	case 3:
		c.Group, c.Artifact, version = parts[0], parts[1], parts[2]
		if version == "" {
			return Coordinate{}, "", errs.New(errs.ErrCodeInvalidCoordinate, "empty version in %q", s)
		}
	default:
		return Coordinate{}, "", errs.New(errs.ErrCodeInvalidCoordinate,
			"invalid coordinate %q (expected group:artifact[:version])", s)
	}

	if len(parts) > 1 && c.Group == "" {
		return Coordinate{}, "", errs.New(errs.ErrCodeInvalidCoordinate, "empty group in %q", s)
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, "", err
	}
	return c, version, nil
}

// MustParseCoordinate is like [ParseCoordinate] but panics on error and
// drops the version. It is meant for tests and static tables.
func MustParseCoordinate(s string) Coordinate {
	c, _, err := ParseCoordinate(s)
	if err != nil {
		panic(fmt.Sprintf("manifest: %v", err))
	}
	return c
}

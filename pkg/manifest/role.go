package manifest

import (
	"strings"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
)

// Role classifies how a resolved dependency participates in a build.
// The zero value is not a valid role.
type Role int

const (
	RoleUnknown         Role = iota
	RoleOptionalCompile      // compile-only, optional for consumers
	RoleCompileExport        // compile scope, transitively visible to consumers
	RoleTestOnly             // test classpath only
)

var roleNames = map[Role]string{
	RoleOptionalCompile: "optional-compile",
	RoleCompileExport:   "compile-and-export",
	RoleTestOnly:        "test-only",
}

// Short aliases accepted on input.
var roleAliases = map[string]Role{
	"optional": RoleOptionalCompile,
	"export":   RoleCompileExport,
	"compile":  RoleCompileExport,
	"test":     RoleTestOnly,
}

// Roles returns every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleOptionalCompile, RoleCompileExport, RoleTestOnly}
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether r is one of [Roles].
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole parses a role name such as "optional-compile" or a short alias
// ("optional", "export", "compile", "test"). Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == key {
			return r, nil
		}
	}
	if r, ok := roleAliases[key]; ok {
		return r, nil
	}
	return RoleUnknown, errs.New(errs.ErrCodeInvalidRole,
		"unknown role %q (must be one of: optional-compile, compile-and-export, test-only)", s)
}

// MarshalText encodes r as its canonical name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errs.New(errs.ErrCodeInvalidRole, "cannot encode role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name via [ParseRole].
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

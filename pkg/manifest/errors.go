package manifest

import (
	"fmt"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
)

// AmbiguousPlatformError is returned when more than one platform is active.
type AmbiguousPlatformError struct {
	First  Coordinate
	Second Coordinate
}

func (e *AmbiguousPlatformError) Error() string {
	return fmt.Sprintf("ambiguous platform: %s and %s are both active", e.First, e.Second)
}

// Code returns [errs.ErrCodeAmbiguousPlatform].
func (e *AmbiguousPlatformError) Code() errs.Code { return errs.ErrCodeAmbiguousPlatform }

// UnresolvedVersionError is returned for a dependency without an explicit
// version that no active platform manages.
type UnresolvedVersionError struct {
	Coordinate Coordinate
	Platform   Coordinate // zero when no platform is active
}

func (e *UnresolvedVersionError) Error() string {
	if e.Platform.IsZero() {
		return fmt.Sprintf("unresolved version for %s: no explicit version and no active platform", e.Coordinate)
	}
	return fmt.Sprintf("unresolved version for %s: no explicit version and not managed by %s", e.Coordinate, e.Platform)
}

// Code returns [errs.ErrCodeUnresolvedVersion].
func (e *UnresolvedVersionError) Code() errs.Code { return errs.ErrCodeUnresolvedVersion }

// ConflictingRoleError is returned when a coordinate is declared twice with
// different roles. First is the role seen earlier in the input.
type ConflictingRoleError struct {
	Coordinate Coordinate
	First      Role
	Second     Role
}

func (e *ConflictingRoleError) Error() string {
	return fmt.Sprintf("conflicting roles for %s: %s and %s", e.Coordinate, e.First, e.Second)
}

// Code returns [errs.ErrCodeConflictingRole].
func (e *ConflictingRoleError) Code() errs.Code { return errs.ErrCodeConflictingRole }

// InvalidEntryError is returned for an entry that cannot be resolved at all,
// such as one with an empty coordinate or no role.
type InvalidEntryError struct {
	Index  int   // position in the input
	Entry  Entry // the offending entry
	Reason string
	Cause  error
}

func (e *InvalidEntryError) Error() string {
	where := fmt.Sprintf("entry %d", e.Index)
	if e.Entry.Source != "" {
		where += " (" + e.Entry.Source + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", where, e.Reason, e.Cause)
	}
	return where + ": " + e.Reason
}

func (e *InvalidEntryError) Unwrap() error { return e.Cause }

// Code returns [errs.ErrCodeInvalidManifest].
func (e *InvalidEntryError) Code() errs.Code { return errs.ErrCodeInvalidManifest }

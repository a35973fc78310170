// Package storage keeps a history of resolution runs.
//
// Every resolution served by the HTTP API (and every CLI run, unless
// disabled) is recorded as a [Run] with a UUID, so results can be fetched
// again later by ID. Backends:
//   - [MemoryStore]: in-process storage for tests and single-instance servers
//   - [FileStore]: JSON files under the user config directory (CLI)
//   - [MongoStore]: MongoDB for shared, persistent history
//
// # Usage
//
//	run := storage.NewRun("build.gradle.kts")
//	run.Dependencies = result.Dependencies
//	if err := store.SaveRun(ctx, run); err != nil {
//	    return err
//	}
//
//	run, err := store.GetRun(ctx, id)
//	if errors.Is(err, errors.ErrCodeRunNotFound) {
//	    // unknown ID
//	}
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/depmanifest/pkg/errors"
	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// DefaultListLimit caps ListRuns when no positive limit is given.
const DefaultListLimit = 50

// Run is one recorded resolution.
type Run struct {
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	Filename     string              `json:"filename"`
	ManifestType string              `json:"manifest_type,omitempty"`
	Project      string              `json:"project,omitempty"`
	Platform     string              `json:"platform,omitempty"` // "group:artifact:version"
	Roles        []string            `json:"roles,omitempty"`    // role filter applied
	Dependencies []manifest.Resolved `json:"dependencies"`
}

// NewRun creates a run with a fresh UUID and the current time.
func NewRun(filename string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Filename:  filename,
	}
}

// Store is the interface for run history backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveRun stores run, replacing any run with the same ID.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun returns the run with the given ID, or a RUN_NOT_FOUND error.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close() error
}

// ValidateID checks that id is a UUID. Stores call it before touching the
// backend so that arbitrary input never reaches file paths or queries.
func ValidateID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return errs.Wrap(errs.ErrCodeRunNotFound, err, "run %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errs.New(errs.ErrCodeRunNotFound, "run %s not found", id)
}

func validateRun(run *Run) error {
	if run == nil {
		return errs.New(errs.ErrCodeInvalidInput, "run is nil")
	}
	if err := uuid.Validate(run.ID); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "run id %q", run.ID)
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

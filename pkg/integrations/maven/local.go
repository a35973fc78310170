package maven

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/depmanifest/pkg/integrations"
)

// LocalRepository reads POM documents from a local Maven repository
// layout such as ~/.m2/repository.
type LocalRepository struct {
	Dir string
}

// DefaultLocalRepository returns ~/.m2/repository.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// NewLocalRepository returns a repository rooted at dir
// ([DefaultLocalRepository] when empty).
func NewLocalRepository(dir string) *LocalRepository {
	if dir == "" {
		dir = DefaultLocalRepository()
	}
	return &LocalRepository{Dir: dir}
}

// Source returns the repository directory as a file URL.
func (r *LocalRepository) Source() string { return "file://" + filepath.ToSlash(r.Dir) }

// FetchPOM reads and parses group:artifact:version's POM from disk.
// A missing file is reported as [integrations.ErrNotFound].
func (r *LocalRepository) FetchPOM(_ context.Context, group, artifact, version string) (*Project, error) {
	path, err := POMPath(group, artifact, version)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: pom %s:%s:%s in %s", integrations.ErrNotFound, group, artifact, version, r.Dir)
	}
	if err != nil {
		return nil, err
	}
	return ParsePOM(data)
}

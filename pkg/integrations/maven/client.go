package maven

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/depmanifest/pkg/cache"
	"github.com/matzehuels/depmanifest/pkg/integrations"
)

// DefaultRepositoryURL is Maven Central.
const DefaultRepositoryURL = "https://repo1.maven.org/maven2"

// Client fetches POM documents from a Maven repository.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	refresh bool
}

// NewClient creates a client for the repository at repoURL (Maven Central
// when empty). Raw POM documents are cached in c for cacheTTL.
func NewClient(c cache.Cache, cacheTTL time.Duration, repoURL string) *Client {
	if repoURL == "" {
		repoURL = DefaultRepositoryURL
	}
	return &Client{
		Client:  integrations.NewClient(c, "maven", cacheTTL, integrations.DefaultHeaders()),
		baseURL: strings.TrimSuffix(repoURL, "/"),
	}
}

// SetRefresh makes subsequent fetches bypass the cache.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

// BaseURL returns the repository URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Source returns the repository URL.
func (c *Client) Source() string { return c.baseURL }

// FetchPOM retrieves and parses group:artifact:version's POM.
//
// Returns [integrations.ErrNotFound] (wrapped) when the repository has no
// such document, and [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchPOM(ctx context.Context, group, artifact, version string) (*Project, error) {
	path, err := POMPath(group, artifact, version)
	if err != nil {
		return nil, err
	}

	var raw string
	err = c.Cached(ctx, c.baseURL+"/"+path, c.refresh, &raw, func() error {
		text, err := c.GetText(ctx, c.baseURL+"/"+path)
		if err != nil {
			return err
		}
		raw = text
		return nil
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: pom %s:%s:%s", err, group, artifact, version)
		}
		return nil, err
	}
	return ParsePOM([]byte(raw))
}

// POMPath returns the repository-relative path of a POM:
// group/with/slashes/artifact/version/artifact-version.pom.
func POMPath(group, artifact, version string) (string, error) {
	if group == "" || artifact == "" || version == "" {
		return "", fmt.Errorf("incomplete maven coordinate %q", group+":"+artifact+":"+version)
	}
	for _, part := range []string{group, artifact, version} {
		if strings.ContainsAny(part, "/\\") || strings.Contains(part, "..") {
			return "", fmt.Errorf("invalid maven coordinate part %q", part)
		}
	}
	return strings.Join([]string{
		strings.ReplaceAll(group, ".", "/"),
		url.PathEscape(artifact),
		url.PathEscape(version),
		url.PathEscape(artifact + "-" + version + ".pom"),
	}, "/"), nil
}

// Package integrations provides HTTP clients for artifact repositories.
//
// # Overview
//
// depmanifest only talks to the network to learn the version table of a
// platform (a Maven BOM). The [maven] subpackage fetches and parses POM
// documents from a Maven repository layout.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by repository
// clients:
//
//   - Response caching through any [cache.Cache] backend
//
//   - Retry with exponential backoff for 5xx and 429 responses
//
//   - HTTP events reported to [observability.HTTP]
//
//     c := integrations.NewClient(fileCache, "maven", 24*time.Hour, integrations.DefaultHeaders())
//     err := c.Cached(ctx, url, false, &doc, func() error { ... })
//
// [maven]: github.com/matzehuels/depmanifest/pkg/integrations/maven
// [cache.Cache]: github.com/matzehuels/depmanifest/pkg/cache.Cache
// [observability.HTTP]: github.com/matzehuels/depmanifest/pkg/observability.HTTP
package integrations

// Package maven reads Maven POM documents.
//
// [Project] models the parts of a POM that carry version information:
// properties, parent, <dependencyManagement> and <dependencies>.
// [Project.ManagedVersions] turns a BOM into a version table and
// [Project.Imports] lists the BOMs it imports.
//
// POMs come from a remote repository ([Client], cached and retried through
// package integrations) or from a local repository layout
// ([LocalRepository]).
//
//	client := maven.NewClient(c, 24*time.Hour, "")
//	bom, err := client.FetchPOM(ctx, "org.junit", "junit-bom", "5.10.0")
//	versions := bom.ManagedVersions()
package maven

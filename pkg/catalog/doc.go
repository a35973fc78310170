// Package catalog reads Gradle version catalogs (libs.versions.toml) and
// expands catalog aliases in manifest entries into coordinates.
//
// A catalog maps aliases to library coordinates and optional versions:
//
//	[versions]
//	mybatis = "3.5.13"
//
//	[libraries]
//	mybatis = { module = "org.mybatis:mybatis", version.ref = "mybatis" }
//	h2 = { group = "com.h2database", name = "h2" }
//	logback-classic = "ch.qos.logback:logback-classic:1.4.14"
//
//	[bundles]
//	testing = ["h2", "logback-classic"]
//
// Build scripts refer to aliases through accessors such as libs.mybatis or
// libs.junit.jupiter.engine. [NormalizeAlias] maps accessors and aliases to
// the same key, so "junit-jupiter-engine", "junit_jupiter_engine" and
// "libs.junit.jupiter.engine" all find the same library.
//
// Libraries declared without a version leave the version to a platform.
package catalog

// Package testing provides shared test doubles for narscan packages.
//
// MemoryFetcher stands in for the binary cache so pipeline, resolver and
// engine tests run without network access. NAR and narinfo fixtures live in
// the fixtures subpackage.
package testing

// Package catalog is the registry of layers produced by a geometry build.
// Entries are content-addressed and indexed by name; a catalog is filled
// once by the builder and only read afterwards.
package catalog

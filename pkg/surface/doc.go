// Package surface defines the surface capability set used by layers:
// bounds containment, local/global mapping, normals and straight-line
// intersection. Surfaces are immutable once constructed and safe for
// concurrent readers.
package surface

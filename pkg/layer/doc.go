// Package layer fuses a bounded surface with the navigation data of a
// detector layer.
//
// A PlaneLayer, DiscLayer or CylinderLayer is at the same time a
// surface.Surface (intersection, bounds, normal and coordinate mapping come
// from its embedded central surface) and a Layer (thickness, role, optional
// sensitive surfaces, approach faces and material). Both views answer from
// the same object: SurfaceRepresentation returns the receiver itself.
//
// Layers are immutable after construction and safe for concurrent readers.
// The only late attachment is the material slot, which may be written once.
// Placement variants are produced exclusively through CloneWithShift (or the
// equivalent NewShifted* constructors), which rebuild the approach faces for
// the new placement and never carry over the sensitive-surface array.
//
// Ownership: bounds are shared between a layer, its clones and its approach
// faces. The transform is a value and therefore never aliased. A
// SurfaceArray or ApproachDescriptor is claimed by exactly one layer; passing
// it to a second constructor fails with ErrOwned.
package layer

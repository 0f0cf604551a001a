// Package geometry provides the rigid placements and vector helpers shared by
// surfaces and layers. Positions are in millimetres, angles in radians.
package geometry

package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/chazu/detgeo/pkg/layer"
)

// LayerID is a content-addressed identifier for catalog entries.
type LayerID [sha256.Size]byte

// NewLayerID hashes content into an ID.
func NewLayerID(content string) LayerID {
	return sha256.Sum256([]byte(content))
}

// IDFor derives the ID of a named layer from its name and geometry.
func IDFor(name string, l layer.Layer) LayerID {
	return NewLayerID(fmt.Sprintf("%s|%s|%s|%s|%g|%s",
		name, l.Kind(), l.Transform(), l.Bounds(), l.Thickness(), l.Type()))
}

// IsZero reports whether id is the zero ID.
func (id LayerID) IsZero() bool {
	return id == LayerID{}
}

func (id LayerID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex digits.
func (id LayerID) Short() string {
	return id.String()[:8]
}

// MarshalText encodes the ID as hex, so it can key JSON objects.
func (id LayerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

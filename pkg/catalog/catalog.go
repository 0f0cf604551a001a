package catalog

import (
	"errors"
	"fmt"

	"github.com/chazu/detgeo/pkg/layer"
)

var (
	// ErrDuplicateName is returned when a name is registered twice.
	ErrDuplicateName = errors.New("duplicate layer name")
	// ErrNilLayer is returned when adding a nil layer.
	ErrNilLayer = errors.New("nil layer")
)

// Entry is one registered layer.
type Entry struct {
	ID     LayerID
	Name   string
	Layer  layer.Layer
	Source string  // DSL form that built the layer
	Parent LayerID // layer this one was shifted from; zero if built from parts
}

// Catalog holds the layers of one build in insertion order.
type Catalog struct {
	entries map[LayerID]*Entry
	order   []LayerID
	names   map[string]LayerID
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[LayerID]*Entry),
		names:   make(map[string]LayerID),
	}
}

// Add registers l under name. Unnamed layers are allowed and are only
// reachable by ID.
func (c *Catalog) Add(name string, l layer.Layer, source string, parent LayerID) (*Entry, error) {
	if l == nil {
		return nil, ErrNilLayer
	}
	if name != "" {
		if _, ok := c.names[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	id := IDFor(name, l)
	if _, ok := c.entries[id]; ok {
		// Same unnamed geometry added twice; disambiguate by position.
		id = NewLayerID(fmt.Sprintf("%s#%d", id, len(c.order)))
	}
	e := &Entry{ID: id, Name: name, Layer: l, Source: source, Parent: parent}
	c.entries[id] = e
	c.order = append(c.order, id)
	if name != "" {
		c.names[name] = id
	}
	return e, nil
}

// Lookup returns the entry with the given name, or nil.
func (c *Catalog) Lookup(name string) *Entry {
	id, ok := c.names[name]
	if !ok {
		return nil
	}
	return c.entries[id]
}

// Get returns the entry with the given ID, or nil.
func (c *Catalog) Get(id LayerID) *Entry {
	return c.entries[id]
}

// Entries returns all entries in insertion order.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Shifted returns the entries cloned from the entry with the given ID.
func (c *Catalog) Shifted(parent LayerID) []*Entry {
	var out []*Entry
	for _, id := range c.order {
		if e := c.entries[id]; e.Parent == parent && !parent.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries.
func (c *Catalog) Count() int {
	return len(c.order)
}

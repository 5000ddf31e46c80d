package tle

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrSatelliteNotFound is returned by Lookup for names not in the catalog.
var ErrSatelliteNotFound = errors.New("satellite not found in catalog")

// Catalog is an immutable, name-indexed set of element sets.
type Catalog struct {
	source    string
	fetchedAt time.Time
	entries   []TLEEntry
	byName    map[string]TLEEntry
}

// NewCatalog indexes entries by exact name. When a name repeats, the later
// entry wins. Unnamed entries are kept but cannot be looked up.
func NewCatalog(source string, fetchedAt time.Time, entries []TLEEntry) *Catalog {
	byName := make(map[string]TLEEntry, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		byName[e.Name] = e
	}
	return &Catalog{
		source:    source,
		fetchedAt: fetchedAt,
		entries:   entries,
		byName:    byName,
	}
}

// Lookup returns the entry whose name matches exactly (case-sensitive).
func (c *Catalog) Lookup(name string) (TLEEntry, error) {
	e, ok := c.byName[name]
	if !ok {
		return TLEEntry{}, fmt.Errorf("%w: %q", ErrSatelliteNotFound, name)
	}
	return e, nil
}

// Len returns the number of parsed records, named or not.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Source returns where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// FetchedAt returns when the underlying data was downloaded.
func (c *Catalog) FetchedAt() time.Time {
	return c.fetchedAt
}

// Names returns the indexed satellite names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EpochRange returns the oldest and newest epochs; zero if empty.
func (c *Catalog) EpochRange() EpochRange {
	if len(c.entries) == 0 {
		return EpochRange{}
	}
	r := EpochRange{Min: c.entries[0].Epoch, Max: c.entries[0].Epoch}
	for _, e := range c.entries[1:] {
		if e.Epoch.Before(r.Min) {
			r.Min = e.Epoch
		}
		if e.Epoch.After(r.Max) {
			r.Max = e.Epoch
		}
	}
	return r
}

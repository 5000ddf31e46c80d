// Package tle parses two-line element catalogs and indexes them by
// satellite name.
package tle

import "time"

// TLEEntry is a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int
	Name    string // empty for bare two-line records
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange is the oldest and newest element epoch in a catalog.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

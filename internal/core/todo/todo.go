// Package todo defines the persisted N+1 entry domain model.
package todo

import "time"

// Entry is one persisted, deduplicated N+1 record. A single normalized query
// detected from several call sites is one Entry with several LocationRecords.
type Entry struct {
	// Fingerprint uniquely identifies the entry within a store.
	Fingerprint string
	// Query is the normalized SQL text, literals replaced.
	Query string
	// Locations holds every observed call site, in insertion order.
	Locations []LocationRecord
	// CreatedAt is set once when the entry is first created and never
	// updated afterwards.
	CreatedAt time.Time
}

// LocationRecord is one observed call site for an Entry.
type LocationRecord struct {
	// Location is the cleaned call stack joined into one display string.
	Location string
	// TestLocation is the normalized test-file identity that produced the
	// observation. Empty for legacy or manually added records.
	TestLocation string
}

// HasLocation reports whether the entry already records this location string.
func (e *Entry) HasLocation(location string) bool {
	for _, loc := range e.Locations {
		if loc.Location == location {
			return true
		}
	}
	return false
}

// AddLocation appends a location record if the location string is not already
// present. An empty location is a no-op. Reports whether a record was added.
func (e *Entry) AddLocation(location, testLocation string) bool {
	if location == "" || e.HasLocation(location) {
		return false
	}
	e.Locations = append(e.Locations, LocationRecord{
		Location:     location,
		TestLocation: testLocation,
	})
	return true
}

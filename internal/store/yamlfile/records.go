package yamlfile

import (
	"time"

	"github.com/colonyops/nplusone/internal/core/todo"
)

// entryRecord is the on-disk shape of one entry. Older files carried a single
// flat "location" string per entry; those are still readable and are upgraded
// to a one-element locations list in memory. New files always write the
// locations list.
type entryRecord struct {
	Fingerprint string           `yaml:"fingerprint"`
	Query       string           `yaml:"query"`
	Location    string           `yaml:"location,omitempty"`
	Locations   []locationRecord `yaml:"locations,omitempty"`
	CreatedAt   time.Time        `yaml:"created_at"`
}

type locationRecord struct {
	Location     string `yaml:"location"`
	TestLocation string `yaml:"test_location,omitempty"`
}

func toRecords(entries []todo.Entry) []entryRecord {
	records := make([]entryRecord, len(entries))
	for i, e := range entries {
		rec := entryRecord{
			Fingerprint: e.Fingerprint,
			Query:       e.Query,
			CreatedAt:   e.CreatedAt.UTC(),
		}
		rec.Locations = make([]locationRecord, len(e.Locations))
		for j, loc := range e.Locations {
			rec.Locations[j] = locationRecord{
				Location:     loc.Location,
				TestLocation: loc.TestLocation,
			}
		}
		records[i] = rec
	}
	return records
}

func fromRecords(records []entryRecord) []todo.Entry {
	entries := make([]todo.Entry, len(records))
	for i, rec := range records {
		entry := todo.Entry{
			Fingerprint: rec.Fingerprint,
			Query:       rec.Query,
			CreatedAt:   rec.CreatedAt,
		}

		for _, loc := range rec.Locations {
			entry.Locations = append(entry.Locations, todo.LocationRecord{
				Location:     loc.Location,
				TestLocation: loc.TestLocation,
			})
		}

		// Legacy flat location, no test provenance.
		if len(rec.Locations) == 0 && rec.Location != "" {
			entry.Locations = append(entry.Locations, todo.LocationRecord{
				Location: rec.Location,
			})
		}

		entries[i] = entry
	}
	return entries
}

package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryAddLocation(t *testing.T) {
	entry := Entry{Fingerprint: "fp", Query: "q"}

	assert.True(t, entry.AddLocation("a.rb:1", "spec/a_spec.rb"))
	assert.True(t, entry.AddLocation("b.rb:2", ""))

	// Same location string is never recorded twice, even with a different
	// test identity.
	assert.False(t, entry.AddLocation("a.rb:1", "spec/other_spec.rb"))
	assert.False(t, entry.AddLocation("", "spec/a_spec.rb"))

	assert.Equal(t, []LocationRecord{
		{Location: "a.rb:1", TestLocation: "spec/a_spec.rb"},
		{Location: "b.rb:2"},
	}, entry.Locations)
}

func TestEntryHasLocation(t *testing.T) {
	entry := Entry{Locations: []LocationRecord{{Location: "a.rb:1"}}}

	assert.True(t, entry.HasLocation("a.rb:1"))
	assert.False(t, entry.HasLocation("b.rb:2"))
	assert.False(t, entry.HasLocation(""))
}

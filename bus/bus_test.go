package bus

import (
	"testing"

	"github.com/rowanvale/chalkline/deck"
)

func TestNewDefaultsCapacity(t *testing.T) {
	b := New(0)
	if cap(b.Tasks) != DefaultCapacity || cap(b.Results) != DefaultCapacity || cap(b.Decks) != DefaultCapacity {
		t.Errorf("capacities = %d/%d/%d", cap(b.Tasks), cap(b.Results), cap(b.Decks))
	}
}

func TestResultsCarryMixedTypes(t *testing.T) {
	b := New(4)
	b.Results <- "final report"
	b.Results <- deck.BuildNotice{To: deck.NoticeAudience, Filename: "x.deck.json"}

	if _, ok := (<-b.Results).(string); !ok {
		t.Error("first result should be a report string")
	}
	if _, ok := (<-b.Results).(deck.BuildNotice); !ok {
		t.Error("second result should be a BuildNotice")
	}
}

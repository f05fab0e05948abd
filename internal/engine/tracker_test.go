package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scanline/internal/ir"
)

func TestTracker_UnseenIsZero(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, ir.UnitProgress{}, tr.Get("nope"))
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_Apply(t *testing.T) {
	tr := NewTracker()

	tr.Apply("A", 1, ir.StatusValid)
	assert.Equal(t, ir.UnitProgress{HighestStagePassed: 1}, tr.Get("A"))

	tr.Apply("A", 2, ir.StatusDefect)
	assert.Equal(t, ir.UnitProgress{HighestStagePassed: 1, DefectPending: true}, tr.Get("A"))

	tr.Apply("A", 3, ir.StatusError)
	assert.Equal(t, ir.UnitProgress{HighestStagePassed: 1, DefectPending: true}, tr.Get("A"), "error changes nothing")

	tr.Apply("A", 2, ir.StatusValid)
	assert.Equal(t, ir.UnitProgress{HighestStagePassed: 2}, tr.Get("A"))
}

func TestTracker_ErrorDoesNotCreateEntry(t *testing.T) {
	tr := NewTracker()
	tr.Apply("A", 1, ir.StatusError)
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_HighestNeverDecreases(t *testing.T) {
	tr := NewTracker()
	tr.Apply("A", 3, ir.StatusValid)
	tr.Apply("A", 1, ir.StatusValid)
	assert.Equal(t, 3, tr.Get("A").HighestStagePassed)
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Apply("B", 1, ir.StatusValid)
	tr.Apply("A", 1, ir.StatusDefect)

	snap := tr.Snapshot()
	snap["A"] = ir.UnitProgress{HighestStagePassed: 9}

	assert.Equal(t, ir.UnitProgress{DefectPending: true}, tr.Get("A"))
	assert.Equal(t, []string{"A", "B"}, tr.Codes())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Apply("A", 1, ir.StatusValid)
	tr.reset()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, ir.UnitProgress{}, tr.Get("A"))
}

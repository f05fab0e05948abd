package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scanline/internal/ir"
)

func statsFixture() []ir.ScanRecord {
	return []ir.ScanRecord{
		{StageID: 1, Status: ir.StatusValid},
		{StageID: 1, Status: ir.StatusValid},
		{StageID: 1, Status: ir.StatusError},
		{StageID: 2, Status: ir.StatusDefect},
		{StageID: 2, Status: ir.StatusValid},
		{StageID: 3, Status: ir.StatusError},
	}
}

func TestAggregate(t *testing.T) {
	recs := statsFixture()

	assert.Equal(t, Stats{Stage: 1, Success: 2, Defect: 0, Error: 2}, Aggregate(recs, 1))
	assert.Equal(t, Stats{Stage: 2, Success: 1, Defect: 1, Error: 2}, Aggregate(recs, 2))
	assert.Equal(t, Stats{Stage: 4, Error: 2}, Aggregate(recs, 4))
	assert.Equal(t, Stats{Stage: 1}, Aggregate(nil, 1))
}

func TestAggregateAll(t *testing.T) {
	all := AggregateAll(statsFixture(), 3)

	assert.Equal(t, []Stats{
		{Stage: 1, Success: 2, Error: 2},
		{Stage: 2, Success: 1, Defect: 1, Error: 2},
		{Stage: 3, Error: 2},
	}, all)
}

func TestAggregate_MatchesAggregateAll(t *testing.T) {
	recs := statsFixture()
	for _, s := range AggregateAll(recs, 3) {
		assert.Equal(t, Aggregate(recs, s.Stage), s)
	}
}

func TestStats_Total(t *testing.T) {
	assert.Equal(t, 6, Stats{Success: 1, Defect: 2, Error: 3}.Total())
}

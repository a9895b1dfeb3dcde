package prioritizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateScore(t *testing.T) {
	item := newItem("x", "S", "A", 1)
	item.Value, item.Urgency, item.Risk, item.Size = 8, 5, 2, 5

	score, err := CalculateScore(item)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, score, 1e-9)

	item.Size = 0
	_, err = CalculateScore(item)
	assert.ErrorIs(t, err, ErrNonPositiveSize)
	assert.ErrorContains(t, err, "item x")
}

func TestNewRankedItem(t *testing.T) {
	ranked, err := NewRankedItem(newItem("x", "S", "A", 1))
	require.NoError(t, err)

	assert.Equal(t, "x", ranked.ID)
	assert.Equal(t, ranked.Score, ranked.AdjustedScore)
	assert.Nil(t, ranked.StreamRank)
	assert.Nil(t, ranked.GlobalRank)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "queue", LevelQueue.String())
	assert.Equal(t, "stream", LevelStream.String())
	assert.Equal(t, "global", LevelGlobal.String())
	assert.Equal(t, "level(7)", Level(7).String())
}

func TestExclusion_String(t *testing.T) {
	excluded := Exclusion{ItemID: "x", Entity: "Z", Level: LevelStream, Reason: ReasonAreaNotWeighted}
	assert.Equal(t, "item x excluded at stream level (requesting area has no weight: Z)", excluded.String())

	excluded.RankedLast = true
	assert.Equal(t, "item x ranked last at stream level (requesting area has no weight: Z)", excluded.String())
}

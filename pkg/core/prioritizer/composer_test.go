package prioritizer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

func twoStreams() Config {
	return Config{
		Queues: defaultQueues(),
		AreaWeights: model.AreaWeights{
			"S1": weights("A", 60, "B", 40),
			"S2": weights("C", 100),
		},
		StreamWeights: weights("S1", 2, "S2", 1),
	}
}

func TestNew_DefaultsToSainteLague(t *testing.T) {
	p := mustNew(t, Config{})
	assert.Equal(t, SainteLague, p.StrategyFor("NOW"))
}

func TestNew_UnknownDefaultStrategy(t *testing.T) {
	_, err := New(Config{DefaultStrategy: "borda"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNew_OverrideForUnknownQueue(t *testing.T) {
	_, err := New(Config{
		Queues:          defaultQueues(),
		QueueStrategies: map[string]Strategy{"SOON": WSJF},
	})
	assert.ErrorIs(t, err, ErrUnknownQueue)
}

func TestNew_OverrideWithUnknownStrategy(t *testing.T) {
	_, err := New(Config{
		Queues:          defaultQueues(),
		QueueStrategies: map[string]Strategy{"NOW": "borda"},
	})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNew_StrategyFor(t *testing.T) {
	p := mustNew(t, Config{
		Queues:          defaultQueues(),
		DefaultStrategy: DHondt,
		QueueStrategies: map[string]Strategy{"NOW": WSJF},
	})

	assert.Equal(t, WSJF, p.StrategyFor("NOW"))
	assert.Equal(t, DHondt, p.StrategyFor("NEXT"))
	assert.Equal(t, map[string]Strategy{"NOW": WSJF}, p.QueueStrategies())
}

func TestNew_CopiesConfig(t *testing.T) {
	cfg := singleStream(weights("A", 2, "B", 1))
	cfg.Queues = defaultQueues()
	p := mustNew(t, cfg)

	cfg.AreaWeights["S"][0].Value = 0
	cfg.StreamWeights[0].Value = 0
	cfg.Queues[0].Phases[0] = "Changed"

	items := []model.Item{newItem("a1", "S", "A", 1), newItem("b1", "S", "B", 1)}
	composition, err := p.Compose(items, DHondt)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a1": 1, "b1": 2}, ranksByID(composition.Global, true))
	assert.Equal(t, "Ready", p.Queues()[0].Phases[0])
}

func TestRankStreams_UnknownStrategy(t *testing.T) {
	p := mustNew(t, twoStreams())
	_, err := p.RankStreams([]model.Item{newItem("a1", "S1", "A", 1)}, "borda")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRankStreams_Empty(t *testing.T) {
	p := mustNew(t, twoStreams())
	result, err := p.RankStreams(nil, DHondt)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Exclusions)
}

func TestRankStreams_NonPositiveSizeFailsForEveryStrategy(t *testing.T) {
	p := mustNew(t, twoStreams())

	bad := newItem("bad", "S1", "A", 1)
	bad.Size = -1

	for _, strategy := range Strategies() {
		_, err := p.RankStreams([]model.Item{newItem("ok", "S1", "A", 2), bad}, strategy)
		assert.ErrorIs(t, err, ErrNonPositiveSize, "strategy %s", strategy)
	}
}

func TestRankStreams_RanksEachStreamIndependently(t *testing.T) {
	p := mustNew(t, twoStreams())

	items := []model.Item{
		newItem("c1", "S2", "C", 1),
		newItem("a1", "S1", "A", 1),
		newItem("c2", "S2", "C", 2),
		newItem("b1", "S1", "B", 1),
	}

	result, err := p.RankStreams(items, DHondt)
	require.NoError(t, err)

	// Streams in order of first appearance
	assert.Equal(t, []string{"c1", "c2", "a1", "b1"}, idsInOrder(result.Items))
	assert.Equal(t, map[string]int{"c1": 1, "c2": 2, "a1": 1, "b1": 2}, ranksByID(result.Items, false))
}

func TestRankStreams_StreamWithoutAreaWeightsSkipped(t *testing.T) {
	p := mustNew(t, twoStreams())

	items := []model.Item{
		newItem("a1", "S1", "A", 1),
		newItem("x1", "S3", "A", 1),
		newItem("x2", "S3", "B", 1),
	}

	result, err := p.RankStreams(items, SainteLague)
	require.NoError(t, err)

	assert.Equal(t, []string{"a1"}, idsInOrder(result.Items))
	require.Len(t, result.Exclusions, 2)
	for i, id := range []string{"x1", "x2"} {
		assert.Equal(t, id, result.Exclusions[i].ItemID)
		assert.Equal(t, "S3", result.Exclusions[i].Entity)
		assert.Equal(t, ReasonStreamHasNoAreaWeights, result.Exclusions[i].Reason)
	}
}

func TestRankStreams_NoEligibleEntities(t *testing.T) {
	p := mustNew(t, twoStreams())

	_, err := p.RankStreams([]model.Item{newItem("x1", "S3", "A", 1)}, DHondt)
	assert.ErrorIs(t, err, ErrNoEligibleEntities)

	_, err = p.RankStreams([]model.Item{newItem("z1", "S1", "Z", 1)}, DHondt)
	assert.ErrorIs(t, err, ErrNoEligibleEntities)
}

func TestRankGlobal_MissingStreamRank(t *testing.T) {
	p := mustNew(t, twoStreams())

	item, err := NewRankedItem(newItem("a1", "S1", "A", 1))
	require.NoError(t, err)

	_, err = p.RankGlobal([]RankedItem{item}, DHondt)
	assert.ErrorIs(t, err, ErrMissingStreamRank)
}

func TestRankGlobal_NoStreamWeights(t *testing.T) {
	cfg := twoStreams()
	cfg.StreamWeights = nil
	p := mustNew(t, cfg)

	streams, err := p.RankStreams([]model.Item{newItem("a1", "S1", "A", 1)}, DHondt)
	require.NoError(t, err)

	_, err = p.RankGlobal(streams.Items, DHondt)
	assert.ErrorIs(t, err, ErrNoEligibleEntities)
}

func TestRankGlobal_UnweightedStreamExcluded(t *testing.T) {
	cfg := twoStreams()
	cfg.StreamWeights = weights("S1", 1)
	p := mustNew(t, cfg)

	items := []model.Item{newItem("a1", "S1", "A", 1), newItem("c1", "S2", "C", 1)}

	composition, err := p.Compose(items, DHondt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, idsInOrder(composition.Global))
	assert.Equal(t, []Exclusion{{ItemID: "c1", Entity: "S2", Level: LevelGlobal, Reason: ReasonStreamNotWeighted}}, composition.Exclusions)

	composition, err = p.Compose(items, WSJF)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "c1"}, idsInOrder(composition.Global))
	assert.True(t, composition.Exclusions[0].RankedLast)
}

func TestRankGlobal_ReplacesResidualGlobalRank(t *testing.T) {
	p := mustNew(t, twoStreams())

	streams, err := p.RankStreams([]model.Item{newItem("a1", "S1", "A", 1)}, DHondt)
	require.NoError(t, err)

	stale := 99
	input := slices.Clone(streams.Items)
	input[0].GlobalRank = &stale

	global, err := p.RankGlobal(input, DHondt)
	require.NoError(t, err)
	assert.Equal(t, 1, *global.Items[0].GlobalRank)
	assert.Equal(t, 99, *input[0].GlobalRank, "input record must not be modified")
}

func TestRankGlobal_StreamRankIsTheOnlyOrderingKey(t *testing.T) {
	p := mustNew(t, twoStreams())

	items := []model.Item{
		newItem("a1", "S1", "A", 1),
		newItem("a2", "S1", "A", 2),
		newItem("b1", "S1", "B", 1),
		newItem("c1", "S2", "C", 1),
		newItem("c2", "S2", "C", 2),
	}

	for _, strategy := range []Strategy{DHondt, SainteLague} {
		streams, err := p.RankStreams(items, strategy)
		require.NoError(t, err)

		baseline, err := p.RankGlobal(streams.Items, strategy)
		require.NoError(t, err)

		// Perturb every field the global level must ignore
		perturbed := slices.Clone(streams.Items)
		slices.Reverse(perturbed)
		for i := range perturbed {
			perturbed[i].PriorityRA = 100 - perturbed[i].PriorityRA
			perturbed[i].RequestingArea = "Other"
			perturbed[i].Name = "renamed"
			perturbed[i].MicroPhase = "Live"
			perturbed[i].Value = float64(i)
		}

		again, err := p.RankGlobal(perturbed, strategy)
		require.NoError(t, err)
		assert.Equal(t, ranksByID(baseline.Items, true), ranksByID(again.Items, true), "strategy %s", strategy)
	}
}

func TestCompose_TwoStreams(t *testing.T) {
	p := mustNew(t, twoStreams())

	items := []model.Item{
		newItem("c1", "S2", "C", 1),
		newItem("a1", "S1", "A", 1),
		newItem("b1", "S1", "B", 1),
		newItem("a2", "S1", "A", 2),
	}
	original := slices.Clone(items)

	composition, err := p.Compose(items, DHondt)
	require.NoError(t, err)

	// S1 stream ranks: a1, b1, a2. Globally S1 (2) wins, then tie 1 vs 1 goes to S1, then S2.
	assert.Equal(t, map[string]int{"c1": 1, "a1": 1, "b1": 2, "a2": 3}, ranksByID(composition.Streams, false))
	assert.Equal(t, []string{"a1", "b1", "c1", "a2"}, idsInOrder(composition.Global))
	assert.Equal(t, map[string]int{"a1": 1, "b1": 2, "c1": 3, "a2": 4}, ranksByID(composition.Global, true))
	assert.Empty(t, composition.Exclusions)

	for _, item := range composition.Streams {
		assert.Nil(t, item.GlobalRank, "stream records carry no global rank")
	}
	assert.Equal(t, original, items, "inputs must not be modified")
}

package prioritizer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// Config holds everything a Prioritizer needs. It is copied by New.
type Config struct {
	Queues []model.Queue

	// DefaultStrategy applies to every queue without an override. Empty means Sainte-Laguë.
	DefaultStrategy Strategy

	// QueueStrategies overrides the strategy per queue name
	QueueStrategies map[string]Strategy

	// AreaWeights holds the requesting area weights of each revenue stream
	AreaWeights model.AreaWeights

	// StreamWeights holds the global revenue stream weights
	StreamWeights model.WeightTable
}

// Prioritizer ranks items with a fixed configuration. It holds no state between calls
// and is safe for concurrent use.
type Prioritizer struct {
	queues          []model.Queue
	defaultStrategy Strategy
	queueStrategies map[string]Strategy
	areaWeights     model.AreaWeights
	streamWeights   model.WeightTable
}

// New validates the configuration and returns a Prioritizer
func New(cfg Config) (*Prioritizer, error) {
	defaultStrategy := cfg.DefaultStrategy
	if defaultStrategy == "" {
		defaultStrategy = SainteLague
	}
	if !defaultStrategy.Valid() {
		return nil, fmt.Errorf("default strategy: %w: %q", ErrUnknownStrategy, string(defaultStrategy))
	}

	queues := make([]model.Queue, len(cfg.Queues))
	for i, q := range cfg.Queues {
		q.Phases = slices.Clone(q.Phases)
		queues[i] = q
	}

	queueStrategies := make(map[string]Strategy, len(cfg.QueueStrategies))
	for name, strategy := range cfg.QueueStrategies {
		if !slices.ContainsFunc(queues, func(q model.Queue) bool { return q.Name == name }) {
			return nil, fmt.Errorf("strategy override for %q: %w", name, ErrUnknownQueue)
		}
		if !strategy.Valid() {
			return nil, fmt.Errorf("strategy override for %q: %w: %q", name, ErrUnknownStrategy, string(strategy))
		}
		queueStrategies[name] = strategy
	}

	areaWeights := make(model.AreaWeights, len(cfg.AreaWeights))
	for stream, table := range cfg.AreaWeights {
		areaWeights[stream] = slices.Clone(table)
	}

	return &Prioritizer{
		queues:          queues,
		defaultStrategy: defaultStrategy,
		queueStrategies: queueStrategies,
		areaWeights:     areaWeights,
		streamWeights:   slices.Clone(cfg.StreamWeights),
	}, nil
}

// Queues returns the configured queues in declaration order
func (p *Prioritizer) Queues() []model.Queue {
	return slices.Clone(p.queues)
}

// StrategyFor returns the strategy used for a queue: its override if one exists, else the default
func (p *Prioritizer) StrategyFor(queue string) Strategy {
	if strategy, ok := p.queueStrategies[queue]; ok {
		return strategy
	}
	return p.defaultStrategy
}

// QueueStrategies returns a copy of the per-queue overrides
func (p *Prioritizer) QueueStrategies() map[string]Strategy {
	return maps.Clone(p.queueStrategies)
}

// LevelResult is the output of ranking one level
type LevelResult struct {
	Items      []RankedItem
	Exclusions []Exclusion
}

// Composition is the output of ranking both levels for one set of items
type Composition struct {
	// Streams holds the level-2 ranking, one block per revenue stream
	Streams []RankedItem

	// Global holds the level-3 ranking in global rank order
	Global []RankedItem

	Exclusions []Exclusion
}

// RankStreams ranks requesting areas within each revenue stream and assigns StreamRank.
// Streams are processed in order of first appearance; a stream without area weights is
// skipped and its items reported as exclusions.
func (p *Prioritizer) RankStreams(items []model.Item, strategy Strategy) (LevelResult, error) {
	alloc, err := strategy.allocator()
	if err != nil {
		return LevelResult{}, err
	}
	if len(items) == 0 {
		return LevelResult{}, nil
	}

	var streams []string
	byStream := make(map[string][]RankedItem)
	for _, item := range items {
		ranked, err := NewRankedItem(item)
		if err != nil {
			return LevelResult{}, err
		}
		if _, seen := byStream[item.RevenueStream]; !seen {
			streams = append(streams, item.RevenueStream)
		}
		byStream[item.RevenueStream] = append(byStream[item.RevenueStream], ranked)
	}

	var result LevelResult
	for _, stream := range streams {
		table := p.areaWeights[stream]
		entities := table.Entities()
		if len(entities) == 0 {
			for _, item := range byStream[stream] {
				result.Exclusions = append(result.Exclusions, Exclusion{
					ItemID: item.ID,
					Entity: stream,
					Level:  LevelStream,
					Reason: ReasonStreamHasNoAreaWeights,
				})
			}
			continue
		}

		eligible, exclusions := partition(byStream[stream], LevelStream, table, alloc.keepsUnweighted(), ReasonAreaNotWeighted)
		result.Exclusions = append(result.Exclusions, exclusions...)
		if len(eligible) == 0 {
			continue
		}

		result.Items = append(result.Items, alloc.allocate(levelInput{
			level:    LevelStream,
			entities: entities,
			weights:  table,
			items:    eligible,
		})...)
	}

	if len(result.Items) == 0 {
		return LevelResult{}, fmt.Errorf("stream level: %w", ErrNoEligibleEntities)
	}
	return result, nil
}

// RankGlobal ranks revenue streams against each other and assigns GlobalRank.
// Items must carry a StreamRank; it is used as-is to order items within their stream.
func (p *Prioritizer) RankGlobal(items []RankedItem, strategy Strategy) (LevelResult, error) {
	alloc, err := strategy.allocator()
	if err != nil {
		return LevelResult{}, err
	}
	if len(items) == 0 {
		return LevelResult{}, nil
	}

	for _, item := range items {
		if item.StreamRank == nil {
			return LevelResult{}, fmt.Errorf("item %s: %w", item.ID, ErrMissingStreamRank)
		}
	}

	entities := p.streamWeights.Entities()
	if len(entities) == 0 {
		return LevelResult{}, fmt.Errorf("global level: %w", ErrNoEligibleEntities)
	}

	eligible, exclusions := partition(items, LevelGlobal, p.streamWeights, alloc.keepsUnweighted(), ReasonStreamNotWeighted)
	if len(eligible) == 0 {
		return LevelResult{}, fmt.Errorf("global level: %w", ErrNoEligibleEntities)
	}

	return LevelResult{
		Items: alloc.allocate(levelInput{
			level:    LevelGlobal,
			entities: entities,
			weights:  p.streamWeights,
			items:    eligible,
		}),
		Exclusions: exclusions,
	}, nil
}

// Compose runs both levels with one strategy
func (p *Prioritizer) Compose(items []model.Item, strategy Strategy) (*Composition, error) {
	streams, err := p.RankStreams(items, strategy)
	if err != nil {
		return nil, err
	}

	global, err := p.RankGlobal(streams.Items, strategy)
	if err != nil {
		return nil, err
	}

	return &Composition{
		Streams:    streams.Items,
		Global:     global.Items,
		Exclusions: append(streams.Exclusions, global.Exclusions...),
	}, nil
}

// partition splits items into those whose entity is weighted at this level and the rest.
// When keep is true the unweighted items stay in the eligible set and are reported as ranked last.
func partition(items []RankedItem, level Level, weights model.WeightTable, keep bool, reason ExclusionReason) ([]RankedItem, []Exclusion) {
	eligible := make([]RankedItem, 0, len(items))
	var exclusions []Exclusion
	for _, item := range items {
		entity := level.entityOf(item)
		if _, ok := weights.Lookup(entity); ok {
			eligible = append(eligible, item)
			continue
		}
		exclusions = append(exclusions, Exclusion{
			ItemID:     item.ID,
			Entity:     entity,
			Level:      level,
			Reason:     reason,
			RankedLast: keep,
		})
		if keep {
			eligible = append(eligible, item)
		}
	}
	return eligible, exclusions
}

package prioritizer

import (
	"fmt"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// QueueSummary describes what happened to one queue during sequencing
type QueueSummary struct {
	Name      string
	Strategy  Strategy
	Rankable  bool
	ItemCount int

	// FirstRank and LastRank bound the global ranks given to the queue; both are 0 when none were
	FirstRank int
	LastRank  int
}

// Outcome is the result of sequencing items across all queues
type Outcome struct {
	// Items holds ranked items by ascending global rank, then unranked items
	// in queue declaration order and input order
	Items []RankedItem

	// Streams holds the level-2 rankings of every rankable queue, in queue order
	Streams []RankedItem

	Exclusions []Exclusion
	Queues     []QueueSummary
}

// Ranked returns the number of items that received a global rank
func (o *Outcome) Ranked() int {
	count := 0
	for _, item := range o.Items {
		if item.GlobalRank != nil {
			count++
		}
	}
	return count
}

// Sequence ranks every queue with its configured strategy and joins the results
// into one global order
func (p *Prioritizer) Sequence(items []model.Item) (*Outcome, error) {
	return p.sequence(items, p.StrategyFor)
}

// SequenceWith ranks every queue with the given strategy, ignoring per-queue overrides
func (p *Prioritizer) SequenceWith(items []model.Item, strategy Strategy) (*Outcome, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
	return p.sequence(items, func(string) Strategy { return strategy })
}

func (p *Prioritizer) sequence(items []model.Item, strategyFor func(queue string) Strategy) (*Outcome, error) {
	outcome := &Outcome{}

	buckets := make(map[string][]model.Item, len(p.queues))
	queued := 0
	for _, item := range items {
		name := model.ResolveQueue(p.queues, item)
		if name == "" {
			outcome.Exclusions = append(outcome.Exclusions, Exclusion{
				ItemID: item.ID,
				Entity: item.MicroPhase,
				Level:  LevelQueue,
				Reason: ReasonNoQueue,
			})
			continue
		}
		item.Queue = name
		buckets[name] = append(buckets[name], item)
		queued++
	}

	if queued == 0 {
		return nil, ErrNoItems
	}

	var unranked []RankedItem
	offset := 0
	for _, queue := range p.queues {
		strategy := strategyFor(queue.Name)
		summary := QueueSummary{
			Name:      queue.Name,
			Strategy:  strategy,
			Rankable:  queue.Rankable,
			ItemCount: len(buckets[queue.Name]),
		}

		if summary.ItemCount == 0 {
			outcome.Queues = append(outcome.Queues, summary)
			continue
		}

		if !queue.Rankable {
			for _, item := range buckets[queue.Name] {
				unranked = append(unranked, passThrough(item, strategy))
			}
			outcome.Queues = append(outcome.Queues, summary)
			continue
		}

		composition, err := p.Compose(buckets[queue.Name], strategy)
		if err != nil {
			return nil, fmt.Errorf("queue %s: %w", queue.Name, err)
		}

		for _, exclusion := range composition.Exclusions {
			exclusion.Queue = queue.Name
			outcome.Exclusions = append(outcome.Exclusions, exclusion)
		}
		outcome.Streams = append(outcome.Streams, composition.Streams...)

		last := offset
		for _, item := range composition.Global {
			rank := *item.GlobalRank + offset
			item.GlobalRank = &rank
			outcome.Items = append(outcome.Items, item)
			if summary.FirstRank == 0 || rank < summary.FirstRank {
				summary.FirstRank = rank
			}
			last = max(last, rank)
		}
		if len(composition.Global) > 0 {
			summary.LastRank = last
		}
		offset = last
		outcome.Queues = append(outcome.Queues, summary)
	}

	outcome.Items = append(outcome.Items, unranked...)
	return outcome, nil
}

// passThrough builds the record of an item in a non-rankable queue.
// Its score is filled in when the size allows it; it never gets a rank.
func passThrough(item model.Item, strategy Strategy) RankedItem {
	ranked := RankedItem{Item: item, Strategy: strategy}
	if score, err := CalculateScore(item); err == nil {
		ranked.Score = score
		ranked.AdjustedScore = score
	}
	return ranked
}

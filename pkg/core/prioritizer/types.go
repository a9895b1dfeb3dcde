package prioritizer

import (
	"fmt"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// Level identifies the hierarchy level a ranking or exclusion belongs to
type Level int

const (
	// LevelQueue is queue assignment, before any allocation
	LevelQueue Level = iota + 1

	// LevelStream ranks requesting areas inside one revenue stream
	LevelStream

	// LevelGlobal ranks revenue streams against each other
	LevelGlobal
)

func (l Level) String() string {
	switch l {
	case LevelQueue:
		return "queue"
	case LevelStream:
		return "stream"
	case LevelGlobal:
		return "global"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// entityOf returns the owning entity of an item at this level
func (l Level) entityOf(item RankedItem) string {
	if l == LevelGlobal {
		return item.RevenueStream
	}
	return item.RequestingArea
}

// orderOf returns the intra-entity ordering key of an item at this level.
// Global ranking consumes the stream rank unchanged.
func (l Level) orderOf(item RankedItem) int {
	if l == LevelGlobal {
		return *item.StreamRank
	}
	return item.PriorityRA
}

// baseScore returns the WSJF score that this level weights
func (l Level) baseScore(item RankedItem) float64 {
	if l == LevelGlobal {
		return item.AdjustedScore
	}
	return item.Score
}

// weightedScore returns the WSJF score produced by this level
func (l Level) weightedScore(item RankedItem) float64 {
	if l == LevelGlobal {
		return item.FinalScore
	}
	return item.AdjustedScore
}

func (l Level) withWeightedScore(item RankedItem, score float64) RankedItem {
	if l == LevelGlobal {
		item.FinalScore = score
	} else {
		item.AdjustedScore = score
	}
	return item
}

// withRank returns a copy of the item carrying the rank produced at this level.
// Any rank from a previous computation at the same level is replaced, never merged.
func (l Level) withRank(item RankedItem, rank int, strategy Strategy) RankedItem {
	if l == LevelGlobal {
		item.GlobalRank = &rank
	} else {
		item.StreamRank = &rank
		item.GlobalRank = nil
	}
	item.Strategy = strategy
	return item
}

// RankedItem is an output record built by the engine. Inputs are never modified;
// every stage constructs new records.
type RankedItem struct {
	model.Item

	// Score is the WSJF base score: (value + urgency + risk) / size
	Score float64

	// AdjustedScore is Score weighted by the requesting area (WSJF at stream level).
	// It equals Score until a WSJF stream ranking sets it.
	AdjustedScore float64

	// FinalScore is AdjustedScore weighted by the revenue stream (WSJF at global level)
	FinalScore float64

	StreamRank *int // nil until ranked within the stream
	GlobalRank *int // nil until ranked globally, and always nil in non-rankable queues
	Strategy   Strategy
}

// CalculateScore computes the WSJF score of an item
func CalculateScore(item model.Item) (float64, error) {
	if item.Size <= 0 {
		return 0, fmt.Errorf("item %s: %w", item.ID, ErrNonPositiveSize)
	}
	return item.CostOfDelay() / item.Size, nil
}

// NewRankedItem builds an unranked record for an item, computing its WSJF score
func NewRankedItem(item model.Item) (RankedItem, error) {
	score, err := CalculateScore(item)
	if err != nil {
		return RankedItem{}, err
	}
	return RankedItem{
		Item:          item,
		Score:         score,
		AdjustedScore: score,
	}, nil
}

// ExclusionReason describes why an item was left out of a level
type ExclusionReason string

const (
	ReasonStreamHasNoAreaWeights ExclusionReason = "revenue stream has no requesting area weights"
	ReasonAreaNotWeighted        ExclusionReason = "requesting area has no weight"
	ReasonStreamNotWeighted      ExclusionReason = "revenue stream has no weight"
	ReasonNoQueue                ExclusionReason = "no queue matches the item"
)

// Exclusion reports an item whose owning entity had no registered weight at some level.
// Seat-based strategies drop such items; WSJF keeps them with a zero score (RankedLast).
type Exclusion struct {
	ItemID     string
	Entity     string
	Level      Level
	Queue      string
	Reason     ExclusionReason
	RankedLast bool
}

func (e Exclusion) String() string {
	action := "excluded"
	if e.RankedLast {
		action = "ranked last"
	}
	return fmt.Sprintf("item %s %s at %s level (%s: %s)", e.ItemID, action, e.Level, e.Reason, e.Entity)
}

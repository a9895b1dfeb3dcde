package prioritizer

import (
	"fmt"
	"strings"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// Strategy identifies one of the supported allocation strategies
type Strategy string

const (
	SainteLague Strategy = "sainte-lague"
	DHondt      Strategy = "dhondt"
	WSJF        Strategy = "wsjf"
)

// Strategies returns every supported strategy in report order
func Strategies() []Strategy {
	return []Strategy{SainteLague, DHondt, WSJF}
}

// ParseStrategy converts an identifier into a Strategy. Matching is case-insensitive.
func ParseStrategy(s string) (Strategy, error) {
	strategy := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategy.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of sainte-lague, dhondt, wsjf)", ErrUnknownStrategy, s)
	}
	return strategy, nil
}

// Valid reports whether the strategy is one of the supported set
func (s Strategy) Valid() bool {
	switch s {
	case SainteLague, DHondt, WSJF:
		return true
	}
	return false
}

// DisplayName returns the human-readable strategy name
func (s Strategy) DisplayName() string {
	switch s {
	case SainteLague:
		return "Sainte-Laguë"
	case DHondt:
		return "D'Hondt"
	case WSJF:
		return "WSJF"
	}
	return string(s)
}

func (s Strategy) allocator() (allocator, error) {
	switch s {
	case SainteLague:
		return divisorAllocator{tag: SainteLague, divisor: sainteLagueDivisor}, nil
	case DHondt:
		return divisorAllocator{tag: DHondt, divisor: dHondtDivisor}, nil
	case WSJF:
		return wsjfAllocator{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
}

// allocator ranks the items of one level. The set of implementations is closed:
// divisorAllocator (Sainte-Laguë, D'Hondt) and wsjfAllocator.
type allocator interface {
	strategy() Strategy

	// keepsUnweighted reports whether items of unweighted entities stay in the ranking
	keepsUnweighted() bool

	// allocate ranks items 1..M. Every item's entity is either in entities or,
	// when keepsUnweighted is true, scored as if its weight were zero.
	allocate(in levelInput) []RankedItem
}

// levelInput is one allocation problem: the entities in canonical order,
// their weights, and the items to rank
type levelInput struct {
	level    Level
	entities []string
	weights  model.WeightTable
	items    []RankedItem
}

package model

import "slices"

// ExcludedPriority marks an item that is left out of PriorityRA sequencing checks.
// The item still takes part in allocation.
const ExcludedPriority = 999

// DefaultMicroPhase is used when the source data carries no lifecycle phase
const DefaultMicroPhase = "Backlog"

// Item represents one demand item (an "idea")
type Item struct {
	ID             string
	Name           string
	RequestingArea string
	RevenueStream  string
	BudgetGroup    string
	MicroPhase     string
	Queue          string // Empty string if not resolved by ingestion
	PriorityRA     int

	// WSJF inputs
	Value   float64
	Urgency float64
	Risk    float64
	Size    float64
}

// CostOfDelay returns value + urgency + risk
func (i Item) CostOfDelay() float64 {
	return i.Value + i.Urgency + i.Risk
}

// Weight is the weight registered for one entity (a requesting area or a revenue stream)
type Weight struct {
	Entity string
	Value  float64
}

// WeightTable is an ordered list of weights.
// The declaration order is the canonical entity order used to break ties.
type WeightTable []Weight

// Lookup returns the weight for an entity. Only strictly positive weights count as registered.
func (t WeightTable) Lookup(entity string) (float64, bool) {
	for _, w := range t {
		if w.Entity == entity {
			return w.Value, w.Value > 0
		}
	}
	return 0, false
}

// Entities returns the entities with a registered weight, in declaration order.
// An entity declared more than once is listed at its first position.
func (t WeightTable) Entities() []string {
	entities := make([]string, 0, len(t))
	for _, w := range t {
		if _, ok := t.Lookup(w.Entity); ok && !slices.Contains(entities, w.Entity) {
			entities = append(entities, w.Entity)
		}
	}
	return entities
}

// Total returns the sum of all weights in the table
func (t WeightTable) Total() float64 {
	total := 0.0
	for _, w := range t {
		total += w.Value
	}
	return total
}

// AreaWeights holds the requesting area weights of each revenue stream, keyed by stream
type AreaWeights map[string]WeightTable

// Queue is a named partition of the item lifecycle
type Queue struct {
	Name     string
	Phases   []string
	Rankable bool
}

// Contains reports whether the item belongs to this queue.
// An item with a resolved Queue belongs to the queue of that name; otherwise its MicroPhase decides.
func (q Queue) Contains(item Item) bool {
	if item.Queue != "" {
		return item.Queue == q.Name
	}
	return slices.Contains(q.Phases, item.MicroPhase)
}

// ResolveQueue returns the name of the first queue containing the item, or "" if none does
func ResolveQueue(queues []Queue, item Item) string {
	for _, q := range queues {
		if q.Contains(item) {
			return q.Name
		}
	}
	return ""
}

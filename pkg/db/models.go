package db

import "time"

// Run is one recorded prioritization run
type Run struct {
	ID              string
	CreatedAt       time.Time
	DefaultStrategy string
	Strategies      []string          // Strategies executed, in execution order
	QueueStrategies map[string]string // Per-queue overrides, keyed by queue name
	ItemCount       int
	RankedCount     int
	ExcludedCount   int
	CycleStart      *time.Time // Nil if no planning cadence is configured
	NextReview      *time.Time
}

// Ranking is the position one item received in a run under one strategy
type Ranking struct {
	RunID          string
	ItemID         string
	Name           string
	RevenueStream  string
	RequestingArea string
	Queue          string
	Strategy       string
	StreamRank     *int // Nil if the item was not ranked within its stream
	GlobalRank     *int // Nil for items in non-rankable queues
	Score          float64
	FinalScore     float64
}

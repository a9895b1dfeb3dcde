package prioritizer

import "errors"

// Domain input errors. These are fatal for the call that returns them.
var (
	// ErrNonPositiveSize is returned when an item's size is zero or negative
	ErrNonPositiveSize = errors.New("size must be greater than zero")

	// ErrUnknownStrategy is returned for a strategy identifier outside the supported set
	ErrUnknownStrategy = errors.New("unknown prioritization strategy")

	// ErrUnknownQueue is returned when a per-queue strategy names a queue that is not configured
	ErrUnknownQueue = errors.New("unknown queue")

	// ErrNoEligibleEntities is returned when a level has items but none of their entities carry a weight
	ErrNoEligibleEntities = errors.New("no eligible entities")

	// ErrMissingStreamRank is returned when global ranking receives an item without a stream rank
	ErrMissingStreamRank = errors.New("item has no stream rank")

	// ErrNoItems is returned when no configured queue holds any item
	ErrNoItems = errors.New("no items to prioritize across all queues")
)

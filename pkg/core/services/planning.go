package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/demand-prioritizer/pkg/exporter"
)

// planningCycle returns the cycle containing now for an RRULE cadence: it starts at the
// latest occurrence at or before now and is reviewed at the next one. Before the first
// occurrence the cycle is the first one. An empty cadence yields nil; a cadence without
// DTSTART is rejected since it would be anchored at the time of the call.
func planningCycle(cadence string, now time.Time) (*exporter.PlanningCycle, error) {
	if cadence == "" {
		return nil, nil
	}

	opts, err := rrule.StrToROption(cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to parse planning cadence: %w", err)
	}
	if opts.Dtstart.IsZero() {
		return nil, fmt.Errorf("planning cadence has no DTSTART")
	}
	rule, err := rrule.NewRRule(*opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse planning cadence: %w", err)
	}

	start := rule.Before(now, true)
	next := rule.After(now, false)
	if start.IsZero() {
		start = next
		next = rule.After(start, false)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("planning cadence has no occurrences")
	}

	return &exporter.PlanningCycle{Start: start, NextReview: next}, nil
}

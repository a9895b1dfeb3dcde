package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
)

// SystemVersion is recorded in every metadata file
const SystemVersion = "3.0.0"

// StrategyRun is the outcome of sequencing all items with one strategy
type StrategyRun struct {
	Strategy prioritizer.Strategy
	Outcome  *prioritizer.Outcome
}

// PlanningCycle is the planning window a run belongs to
type PlanningCycle struct {
	Start      time.Time `json:"start"`
	NextReview time.Time `json:"next_review"`
}

// Metadata describes an export
type Metadata struct {
	ExecutionTimestamp string            `json:"execution_timestamp"`
	SystemVersion      string            `json:"system_version"`
	RunID              string            `json:"run_id"`
	InputFiles         map[string]string `json:"input_files"`
	OutputDirectory    string            `json:"output_directory"`
	MethodsExecuted    []string          `json:"methods_executed"`
	QueueMode          bool              `json:"queue_mode"`
	QueueStrategies    map[string]string `json:"queue_strategies,omitempty"`
	Statistics         Statistics        `json:"statistics"`
	PlanningCycle      *PlanningCycle    `json:"planning_cycle,omitempty"`
}

// Statistics summarises the items of an export
type Statistics struct {
	TotalItems    int            `json:"total_items"`
	ItemsPerQueue map[string]int `json:"items_per_queue"`
	Ranked        map[string]int `json:"ranked_items"`
	Excluded      map[string]int `json:"excluded_items"`
}

// Export holds what WriteAll needs besides the runs
type Export struct {
	RunID           string
	Inputs          map[string]string
	Queues          []model.Queue
	QueueStrategies map[string]prioritizer.Strategy
	PlanningCycle   *PlanningCycle
	Now             time.Time
}

// WriteAll writes the per-strategy stream and global rankings, a combined global ranking
// and, when enabled, metadata.json into dir. It returns the paths written.
func (w *Writer) WriteAll(dir string, runs []StrategyRun, export Export) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	var combined []prioritizer.RankedItem
	methods := make([]string, 0, len(runs))
	for _, run := range runs {
		methods = append(methods, string(run.Strategy))

		streamPath := filepath.Join(dir, fmt.Sprintf("prioritization_rs_%s.csv", run.Strategy))
		if err := w.WriteStreamRanking(streamPath, run.Outcome.Streams); err != nil {
			return written, err
		}
		written = append(written, streamPath)

		globalPath := filepath.Join(dir, fmt.Sprintf("demand_%s.csv", run.Strategy))
		if err := w.WriteGlobalRanking(globalPath, run.Outcome.Items, export.Queues); err != nil {
			return written, err
		}
		written = append(written, globalPath)

		combined = append(combined, run.Outcome.Items...)
	}

	combinedPath := filepath.Join(dir, "demand.csv")
	if err := w.WriteGlobalRanking(combinedPath, combined, export.Queues); err != nil {
		return written, err
	}
	written = append(written, combinedPath)

	if !w.includeMetadata {
		return written, nil
	}

	now := export.Now
	if now.IsZero() {
		now = time.Now()
	}
	meta := Metadata{
		ExecutionTimestamp: now.Format(w.dateFormat),
		SystemVersion:      SystemVersion,
		RunID:              export.RunID,
		InputFiles:         export.Inputs,
		OutputDirectory:    dir,
		MethodsExecuted:    methods,
		QueueMode:          len(export.Queues) > 0,
		Statistics:         statistics(runs),
		PlanningCycle:      export.PlanningCycle,
	}
	if len(export.QueueStrategies) > 0 {
		meta.QueueStrategies = make(map[string]string, len(export.QueueStrategies))
		for queue, strategy := range export.QueueStrategies {
			meta.QueueStrategies[queue] = string(strategy)
		}
	}

	metaPath := filepath.Join(dir, "metadata.json")
	if err := WriteMetadata(metaPath, meta); err != nil {
		return written, err
	}
	return append(written, metaPath), nil
}

// WriteMetadata writes indented JSON metadata
func WriteMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func statistics(runs []StrategyRun) Statistics {
	stats := Statistics{
		ItemsPerQueue: make(map[string]int),
		Ranked:        make(map[string]int),
		Excluded:      make(map[string]int),
	}
	if len(runs) == 0 {
		return stats
	}

	// Queue membership does not depend on the strategy
	first := runs[0].Outcome
	for _, q := range first.Queues {
		stats.ItemsPerQueue[q.Name] = q.ItemCount
		stats.TotalItems += q.ItemCount
	}
	for _, exclusion := range first.Exclusions {
		if exclusion.Level == prioritizer.LevelQueue {
			stats.TotalItems++
		}
	}

	for _, run := range runs {
		stats.Ranked[string(run.Strategy)] = run.Outcome.Ranked()
		stats.Excluded[string(run.Strategy)] = len(run.Outcome.Exclusions)
	}
	return stats
}

package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/db"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// mockSource implements DemandSource
type mockSource struct {
	dataset *loader.Dataset
	err     error
	loads   int
}

func (m *mockSource) LoadDataset(ctx context.Context) (*loader.Dataset, error) {
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

func (m *mockSource) Describe() map[string]string {
	return map[string]string{"ideas": "ideas.csv"}
}

// mockRunStore implements RunRecorder and PublishRankingStore
type mockRunStore struct {
	runs           []db.Run
	rankings       []db.Ranking
	insertRunErr   error
	getRunsErr     error
	getRankingsErr error
}

func (m *mockRunStore) InsertRun(ctx context.Context, run *db.Run) error {
	if m.insertRunErr != nil {
		return m.insertRunErr
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunStore) InsertRankings(ctx context.Context, rankings []db.Ranking) error {
	m.rankings = append(m.rankings, rankings...)
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context) ([]db.Run, error) {
	if m.getRunsErr != nil {
		return nil, m.getRunsErr
	}
	return append([]db.Run(nil), m.runs...), nil
}

func (m *mockRunStore) GetRankings(ctx context.Context, runID string) ([]db.Ranking, error) {
	if m.getRankingsErr != nil {
		return nil, m.getRankingsErr
	}
	var out []db.Ranking
	for _, r := range m.rankings {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.RevenueStreams = []string{"Retail", "Wholesale"}
	cfg.BudgetGroups = []string{"BG1", "BG2"}
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func testItem(id, area, stream string, priority int, phase string) model.Item {
	return model.Item{
		ID: id, Name: "Idea " + id, RequestingArea: area, RevenueStream: stream, BudgetGroup: "BG1",
		MicroPhase: phase, PriorityRA: priority, Value: 5, Urgency: 5, Risk: 5, Size: 5,
	}
}

// testDataset holds four NOW items, one LATER, one PRODUCTION and one without a queue
func testDataset() *loader.Dataset {
	return &loader.Dataset{
		Items: []model.Item{
			testItem("s1", "Sales", "Retail", 1, "Development"),
			testItem("s2", "Sales", "Retail", 2, "Development"),
			testItem("m1", "Marketing", "Retail", 1, "Development"),
			testItem("o1", "Ops", "Wholesale", 1, "Development"),
			testItem("l1", "Sales", "Retail", 3, "Backlog"),
			testItem("d1", "Ops", "Wholesale", 2, "Done"),
			testItem("x1", "Sales", "Retail", 4, "Archived"),
		},
		AreaWeights: []loader.AreaWeight{
			{RevenueStream: "Retail", BudgetGroup: "BG1", RequestingArea: "Sales", Weight: 60},
			{RevenueStream: "Retail", BudgetGroup: "BG1", RequestingArea: "Marketing", Weight: 40},
			{RevenueStream: "Wholesale", BudgetGroup: "BG2", RequestingArea: "Ops", Weight: 100},
		},
		StreamWeights: []loader.StreamWeight{
			{RevenueStream: "Retail", Weight: 70},
			{RevenueStream: "Wholesale", Weight: 30},
		},
		Warnings: []string{"Weights sum to 99.00, not 100.0"},
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func rankedIDs(items []prioritizer.RankedItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

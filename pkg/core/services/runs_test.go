package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/pkg/clients/sheetsclient"
	"github.com/jakechorley/demand-prioritizer/pkg/db"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// mockPublisher implements RankingPublisher
type mockPublisher struct {
	spreadsheetID string
	published     *sheetsclient.PublishedRanking
	err           error
}

func (m *mockPublisher) PublishRanking(ctx context.Context, spreadsheetID string, ranking *sheetsclient.PublishedRanking) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.spreadsheetID = spreadsheetID
	m.published = ranking
	return sheetsclient.TabTitle(ranking), nil
}

func intPtr(i int) *int {
	return &i
}

func runStoreWithHistory() *mockRunStore {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &mockRunStore{
		runs: []db.Run{
			{ID: "run-old", CreatedAt: base, DefaultStrategy: "sainte-lague"},
			{ID: "run-new", CreatedAt: base.Add(48 * time.Hour), DefaultStrategy: "dhondt"},
			{ID: "run-mid", CreatedAt: base.Add(24 * time.Hour), DefaultStrategy: "wsjf"},
		},
		rankings: []db.Ranking{
			{RunID: "run-new", ItemID: "s1", Name: "Idea s1", RevenueStream: "Retail", RequestingArea: "Sales", Queue: "NOW",
				Strategy: "dhondt", StreamRank: intPtr(1), GlobalRank: intPtr(1), Score: 3},
			{RunID: "run-new", ItemID: "d1", Name: "Idea d1", RevenueStream: "Wholesale", RequestingArea: "Ops", Queue: "PRODUCTION",
				Strategy: "dhondt", Score: 3},
			{RunID: "run-new", ItemID: "s1", Name: "Idea s1", RevenueStream: "Retail", RequestingArea: "Sales", Queue: "NOW",
				Strategy: "wsjf", StreamRank: intPtr(1), GlobalRank: intPtr(1), Score: 3},
			{RunID: "run-old", ItemID: "o1", Name: "Idea o1", RevenueStream: "Wholesale", RequestingArea: "Ops", Queue: "NOW",
				Strategy: "sainte-lague", StreamRank: intPtr(1), GlobalRank: intPtr(2), Score: 2.5},
		},
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	runs, err := ListRuns(context.Background(), runStoreWithHistory(), testLogger(), 0)
	require.NoError(t, err)

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"run-new", "run-mid", "run-old"}, ids)
}

func TestListRuns_Limit(t *testing.T) {
	runs, err := ListRuns(context.Background(), runStoreWithHistory(), testLogger(), 2)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-mid", runs[1].ID)
}

func TestListRuns_StoreError(t *testing.T) {
	store := &mockRunStore{getRunsErr: errors.New("connection refused")}

	_, err := ListRuns(context.Background(), store, testLogger(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch runs")
}

func TestPublishRanking_LatestRunDefaultStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sheets.RankingSheetID = "sheet-123"
	publisher := &mockPublisher{}

	published, title, err := PublishRanking(context.Background(), runStoreWithHistory(), publisher, cfg, testLogger(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", publisher.spreadsheetID)
	assert.Equal(t, "run-new", published.RunID)
	assert.Equal(t, "dhondt", published.Strategy)
	assert.Equal(t, "2026-03-12 dhondt (run-new)", title)

	require.Len(t, published.Rows, 2)
	assert.Equal(t, sheetsclient.PublishedRankingRow{
		GlobalRank:     "1",
		ItemID:         "s1",
		Name:           "Idea s1",
		RevenueStream:  "Retail",
		RequestingArea: "Sales",
		Queue:          "NOW",
		StreamRank:     "1",
		Score:          loader.FormatNumber(3, cfg.Output.DecimalPrecision, cfg.Locale.DecimalSeparator),
	}, published.Rows[0])
	assert.Empty(t, published.Rows[1].GlobalRank)
	assert.Empty(t, published.Rows[1].StreamRank)
}

func TestPublishRanking_SelectedRunAndStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sheets.RankingSheetID = "sheet-123"
	publisher := &mockPublisher{}

	published, _, err := PublishRanking(context.Background(), runStoreWithHistory(), publisher, cfg, testLogger(), "run-new", "wsjf")
	require.NoError(t, err)

	assert.Equal(t, "wsjf", published.Strategy)
	require.Len(t, published.Rows, 1)
	assert.Equal(t, "s1", published.Rows[0].ItemID)
}

func TestPublishRanking_Errors(t *testing.T) {
	tests := []struct {
		name      string
		sheetID   string
		store     *mockRunStore
		publisher *mockPublisher
		runID     string
		strategy  string
		wantErr   string
	}{
		{
			name:      "ranking sheet not configured",
			store:     runStoreWithHistory(),
			publisher: &mockPublisher{},
			wantErr:   "rankingSheetID is not configured",
		},
		{
			name:      "no runs recorded",
			sheetID:   "sheet-123",
			store:     &mockRunStore{},
			publisher: &mockPublisher{},
			wantErr:   "no runs found",
		},
		{
			name:      "unknown run",
			sheetID:   "sheet-123",
			store:     runStoreWithHistory(),
			publisher: &mockPublisher{},
			runID:     "run-missing",
			wantErr:   "run not found: run-missing",
		},
		{
			name:      "no rankings for strategy",
			sheetID:   "sheet-123",
			store:     runStoreWithHistory(),
			publisher: &mockPublisher{},
			runID:     "run-old",
			strategy:  "wsjf",
			wantErr:   "run run-old has no rankings for strategy wsjf",
		},
		{
			name:      "rankings lookup fails",
			sheetID:   "sheet-123",
			store:     &mockRunStore{runs: runStoreWithHistory().runs, getRankingsErr: errors.New("timeout")},
			publisher: &mockPublisher{},
			wantErr:   "failed to fetch rankings",
		},
		{
			name:      "publisher fails",
			sheetID:   "sheet-123",
			store:     runStoreWithHistory(),
			publisher: &mockPublisher{err: errors.New("quota exceeded")},
			wantErr:   "failed to publish ranking: quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Sheets.RankingSheetID = tt.sheetID

			_, _, err := PublishRanking(context.Background(), tt.store, tt.publisher, cfg, testLogger(), tt.runID, tt.strategy)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

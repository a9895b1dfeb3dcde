package sheetsclient

import (
	"context"
	"fmt"
	"time"
)

// PublishedRankingRow represents a single row in a published ranking
type PublishedRankingRow struct {
	GlobalRank     string // Empty for items in non-rankable queues
	ItemID         string
	Name           string
	RevenueStream  string
	RequestingArea string
	Queue          string
	StreamRank     string
	Score          string
}

// PublishedRanking represents the complete ranking of one run under one strategy
type PublishedRanking struct {
	RunID     string
	Strategy  string
	CreatedAt time.Time
	Rows      []PublishedRankingRow
}

var rankingHeader = []interface{}{"Rank", "ID", "Name", "Revenue stream", "Requesting area", "Queue", "Stream rank", "Score"}

// Sheets is the subset of the Sheets API used to publish rankings
type Sheets interface {
	SheetExists(ctx context.Context, spreadsheetID, sheetTitle string) (bool, error)
	CreateSheet(ctx context.Context, spreadsheetID, sheetTitle string) (int64, error)
	ClearValues(ctx context.Context, spreadsheetID, sheetRange string) error
	AppendRows(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error
}

// PublishRanking writes a ranking to its own tab, named after the run date and strategy.
// An existing tab of the same name is overwritten. It returns the tab title.
func PublishRanking(ctx context.Context, api Sheets, spreadsheetID string, ranking *PublishedRanking) (string, error) {
	title := TabTitle(ranking)

	exists, err := api.SheetExists(ctx, spreadsheetID, title)
	if err != nil {
		return "", err
	}
	if exists {
		if err := api.ClearValues(ctx, spreadsheetID, A1Range(title, "")); err != nil {
			return "", fmt.Errorf("failed to clear tab %s: %w", title, err)
		}
	} else if _, err := api.CreateSheet(ctx, spreadsheetID, title); err != nil {
		return "", fmt.Errorf("failed to create tab %s: %w", title, err)
	}

	if err := api.AppendRows(ctx, spreadsheetID, A1Range(title, "A1"), RankingRows(ranking)); err != nil {
		return "", fmt.Errorf("failed to write tab %s: %w", title, err)
	}
	return title, nil
}

// PublishRanking publishes through this client
func (c *Client) PublishRanking(ctx context.Context, spreadsheetID string, ranking *PublishedRanking) (string, error) {
	return PublishRanking(ctx, c, spreadsheetID, ranking)
}

// TabTitle names a ranking tab, for example "2026-03-02 dhondt (3f2a9c1b)"
func TabTitle(ranking *PublishedRanking) string {
	runID := ranking.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("%s %s (%s)", ranking.CreatedAt.Format("2006-01-02"), ranking.Strategy, runID)
}

// RankingRows builds the header and data rows of a ranking tab
func RankingRows(ranking *PublishedRanking) [][]interface{} {
	rows := make([][]interface{}, 0, len(ranking.Rows)+1)
	rows = append(rows, rankingHeader)
	for _, r := range ranking.Rows {
		rows = append(rows, []interface{}{r.GlobalRank, r.ItemID, r.Name, r.RevenueStream, r.RequestingArea, r.Queue, r.StreamRank, r.Score})
	}
	return rows
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// Writer renders rankings as delimited files using the configured locale
type Writer struct {
	delimiter       rune
	decimal         string
	precision       int
	includeMetadata bool
	dateFormat      string
}

// New returns a Writer for the locale and output settings in cfg
func New(cfg *config.Config) (*Writer, error) {
	delimiter, size := utf8.DecodeRuneInString(cfg.Locale.CSVDelimiter)
	if size == 0 || size != len(cfg.Locale.CSVDelimiter) {
		return nil, fmt.Errorf("csv delimiter must be a single character, got %q", cfg.Locale.CSVDelimiter)
	}
	return &Writer{
		delimiter:       delimiter,
		decimal:         cfg.Locale.DecimalSeparator,
		precision:       cfg.Output.DecimalPrecision,
		includeMetadata: cfg.Output.IncludeMetadata,
		dateFormat:      cfg.Output.DateFormat,
	}, nil
}

var streamColumns = []string{
	loader.ColID, loader.ColName, loader.ColRequestingArea, loader.ColRevenueStream, loader.ColBudgetGroup,
	loader.ColMicroPhase, loader.ColQueue, loader.ColPriorityRA,
	loader.ColValue, loader.ColUrgency, loader.ColRisk, loader.ColSize,
	loader.ColScore, loader.ColAdjustedScore, loader.ColStreamRank, loader.ColMethod,
}

var globalColumns = append(append([]string{}, streamColumns...), loader.ColFinalScore, loader.ColGlobalRank)

// WriteStreamRanking writes a level-2 ranking ordered by stream, strategy and stream rank.
// The file can be read back with loader.ParseStreamRanking.
func (w *Writer) WriteStreamRanking(path string, items []prioritizer.RankedItem) error {
	rows := [][]string{streamColumns}
	for _, item := range prioritizer.SortStreamOutput(items) {
		rows = append(rows, w.streamRow(item))
	}
	return w.writeFile(path, rows)
}

// WriteGlobalRanking writes a level-3 ranking ordered by strategy, queue and global rank
func (w *Writer) WriteGlobalRanking(path string, items []prioritizer.RankedItem, queues []model.Queue) error {
	rows := [][]string{globalColumns}
	for _, item := range prioritizer.SortGlobalOutput(items, queues) {
		rows = append(rows, append(w.streamRow(item), w.number(item.FinalScore), rank(item.GlobalRank)))
	}
	return w.writeFile(path, rows)
}

// WriteComparison writes a strategy comparison, one rank column per strategy
func (w *Writer) WriteComparison(path string, comparison *prioritizer.Comparison) error {
	header := []string{loader.ColID, loader.ColName, loader.ColRevenueStream, loader.ColRequestingArea, loader.ColQueue, loader.ColScore}
	for _, strategy := range comparison.Strategies {
		header = append(header, "Rank_"+string(strategy))
	}
	header = append(header, "AvgRank", "RankVariance")

	rows := [][]string{header}
	for _, r := range comparison.Rows {
		row := []string{r.ID, r.Name, r.RevenueStream, r.RequestingArea, r.Queue, w.number(r.Score)}
		for _, strategy := range comparison.Strategies {
			if n, ok := r.Ranks[strategy]; ok {
				row = append(row, strconv.Itoa(n))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, w.number(r.AvgRank), w.number(r.RankVariance))
		rows = append(rows, row)
	}
	return w.writeFile(path, rows)
}

func (w *Writer) streamRow(item prioritizer.RankedItem) []string {
	return []string{
		item.ID, item.Name, item.RequestingArea, item.RevenueStream, item.BudgetGroup,
		item.MicroPhase, item.Queue, strconv.Itoa(item.PriorityRA),
		w.number(item.Value), w.number(item.Urgency), w.number(item.Risk), w.number(item.Size),
		w.number(item.Score), w.number(item.AdjustedScore), rank(item.StreamRank), string(item.Strategy),
	}
}

func (w *Writer) number(v float64) string {
	return loader.FormatNumber(v, w.precision, w.decimal)
}

func rank(r *int) string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(*r)
}

func (w *Writer) writeFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = w.delimiter
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

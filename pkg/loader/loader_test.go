package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RevenueStreams = []string{"Retail", "Wholesale"}
	cfg.BudgetGroups = []string{"BG1", "BG2"}
	return cfg
}

// records splits semicolon separated lines into records
func records(lines ...string) [][]string {
	out := make([][]string, len(lines))
	for i, line := range lines {
		out[i] = strings.Split(line, ";")
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const ideasHeader = "ID;Name;RequestingArea;RevenueStream;BudgetGroup;PriorityRA;MicroPhase;Value;Urgency;Risk;Size"

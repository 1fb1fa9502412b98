package report

import (
	"bytes"
	"encoding/csv"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:000", FormatElapsed(0))
	assert.Equal(t, "00:042", FormatElapsed(42*time.Millisecond))
	assert.Equal(t, "03:007", FormatElapsed(3*time.Second+7*time.Millisecond+900*time.Microsecond))
	assert.Equal(t, "125:500", FormatElapsed(125500*time.Millisecond))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, "15,383,109", Count(15383109))
	assert.Equal(t, "999", Count(999))
	assert.Equal(t, "18,446,744,073,709,551,615", Count(^uint64(0)))
	assert.Equal(t, "0", BigCount(nil))

	b, ok := new(big.Int).SetString("12345678901234567890123", 10)
	require.True(t, ok)
	assert.Equal(t, "12,345,678,901,234,567,890,123", BigCount(b))
}

func TestBoundShare(t *testing.T) {
	assert.Equal(t, 100.0, BoundShare(12, big.NewInt(12)))
	assert.Equal(t, 25.0, BoundShare(3, big.NewInt(12)))
	assert.Equal(t, 0.0, BoundShare(3, big.NewInt(0)))
	assert.Equal(t, 0.0, BoundShare(3, nil))
}

func TestGap(t *testing.T) {
	assert.Equal(t, 50.0, Gap(4, 6))
	assert.Equal(t, 0.0, Gap(0, 6))
}

func sampleResults() []Result {
	return []Result{
		{RunID: "r1", Instance: "a", Agents: 2, Tasks: 3, Solver: "Exhaustive", Elapsed: 4 * time.Millisecond, Success: true, Makespan: 6, Nodes: 78, Bound: big.NewInt(78)},
		{RunID: "r1", Instance: "a", Agents: 2, Tasks: 3, Solver: "Greedy", Elapsed: time.Millisecond, Success: true, Makespan: 8, Nodes: 10},
		{RunID: "r1", Instance: "b", Agents: 2, Tasks: 3, Solver: "Exhaustive", Elapsed: 2 * time.Millisecond, Success: false, Error: "infeasible"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"r1", "", "a", "2", "3", "Exhaustive", "4.000", "true", "6.000", "78", "78", ""}, rows[1])
	assert.Equal(t, "", rows[2][10], "greedy rows carry no bound")
	assert.Equal(t, "infeasible", rows[3][11])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence", "results.csv")
	require.NoError(t, WriteCSVFile(path, sampleResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "run_id,timestamp,"))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleResults())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Solver")
	assert.Regexp(t, `^Exhaustive\s+2\s+1\s+00:004\s+6\.00\s+78$`, lines[2])
	assert.Regexp(t, `^Greedy\s+1\s+1\s+00:001\s+8\.00\s+10$`, lines[3])
}

// Package report formats search results for terminals and CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Result is one solver run on one instance.
type Result struct {
	RunID     string
	Timestamp string
	Instance  string
	Agents    int
	Tasks     int
	Solver    string
	Elapsed   time.Duration
	Success   bool
	Makespan  float64
	Nodes     uint64 // exhaustive tree nodes, greedy pairs
	Bound     *big.Int
	Error     string
}

// FormatElapsed renders d as seconds and milliseconds, "ss:mmm".
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%03d", ms/1000, ms%1000)
}

// Count renders n with thousands separators.
func Count(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}

// BigCount renders a bound with thousands separators.
func BigCount(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return humanize.BigComma(n)
}

// BoundShare returns explored/bound as a percentage, 0 for an empty bound.
func BoundShare(explored uint64, bound *big.Int) float64 {
	if bound == nil || bound.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).Quo(
		new(big.Float).SetUint64(explored),
		new(big.Float).SetInt(bound),
	)
	pct, _ := ratio.Float64()
	return pct * 100
}

var header = []string{
	"run_id", "timestamp", "instance", "agents", "tasks", "solver",
	"elapsed_ms", "success", "makespan", "nodes", "bound", "error",
}

// WriteCSV writes results with a header row.
func WriteCSV(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		bound := ""
		if r.Bound != nil {
			bound = r.Bound.String()
		}
		row := []string{
			r.RunID, r.Timestamp, r.Instance,
			strconv.Itoa(r.Agents), strconv.Itoa(r.Tasks), r.Solver,
			fmt.Sprintf("%.3f", float64(r.Elapsed.Microseconds())/1000),
			strconv.FormatBool(r.Success),
			fmt.Sprintf("%.3f", r.Makespan),
			strconv.FormatUint(r.Nodes, 10), bound, r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes results to path, creating its directory.
func WriteCSVFile(path string, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, results); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type solverSummary struct {
	runs      int
	successes int
	elapsed   time.Duration
	makespan  float64
	nodes     uint64
}

// WriteSummary prints a per-solver table of runs, successes and averages.
func WriteSummary(w io.Writer, results []Result) {
	byName := make(map[string]*solverSummary)
	for _, r := range results {
		s, ok := byName[r.Solver]
		if !ok {
			s = &solverSummary{}
			byName[r.Solver] = s
		}
		s.runs++
		if r.Success {
			s.successes++
			s.elapsed += r.Elapsed
			s.makespan += r.Makespan
			s.nodes += r.Nodes
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%-12s %6s %8s %10s %12s %16s\n",
		"Solver", "Runs", "Success", "Avg ss:mmm", "AvgMakespan", "Avg nodes")
	fmt.Fprintln(w, strings.Repeat("-", 69))
	for _, name := range names {
		s := byName[name]
		var (
			avgElapsed  time.Duration
			avgMakespan float64
			avgNodes    uint64
		)
		if s.successes > 0 {
			avgElapsed = s.elapsed / time.Duration(s.successes)
			avgMakespan = s.makespan / float64(s.successes)
			avgNodes = s.nodes / uint64(s.successes)
		}
		fmt.Fprintf(w, "%-12s %6d %8d %10s %12.2f %16s\n",
			name, s.runs, s.successes, FormatElapsed(avgElapsed), avgMakespan, Count(avgNodes))
	}
}

// Gap returns how far approx is above opt, in percent. 0 when opt is 0.
func Gap(opt, approx float64) float64 {
	if opt == 0 {
		return 0
	}
	return (approx - opt) / opt * 100
}

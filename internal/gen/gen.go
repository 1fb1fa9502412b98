// Package gen generates deterministic grid instances and stores them as JSON.
package gen

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// Params defines instance generation.
type Params struct {
	Seed      int64 `json:"seed"`
	NumAgents int   `json:"num_agents"`
	TaskCount int   `json:"task_count"`
	GridSize  int   `json:"grid_size"` // coordinates are drawn from [0, GridSize)
}

// Validate rejects parameters that cannot produce an instance.
func (p Params) Validate() error {
	switch {
	case p.NumAgents <= 0:
		return fmt.Errorf("%w: num_agents must be positive", core.ErrInvalidConfiguration)
	case p.TaskCount < 0:
		return fmt.Errorf("%w: task_count must not be negative", core.ErrInvalidConfiguration)
	case p.GridSize <= 0:
		return fmt.Errorf("%w: grid_size must be positive", core.ErrInvalidConfiguration)
	}
	return nil
}

// Name returns the canonical file stem for the parameters.
func (p Params) Name() string {
	return fmt.Sprintf("taskalloc_%d_%d_%dx%d_%d", p.NumAgents, p.TaskCount, p.GridSize, p.GridSize, p.Seed)
}

// File is an instance as stored on disk.
type File struct {
	Name      string                     `json:"name"`
	Params    Params                     `json:"params"`
	Instance  *core.Instance[core.Coord] `json:"instance"`
	Generated string                     `json:"generated"`
}

// Generate creates a grid instance with uniformly drawn agent positions and
// task endpoints. The same Params always give the same instance.
func Generate(p Params) (*core.Instance[core.Coord], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(p.Seed))
	coord := func() core.Coord {
		return core.Coord{X: rng.Intn(p.GridSize), Y: rng.Intn(p.GridSize)}
	}

	agents := make([]core.Agent[core.Coord], p.NumAgents)
	for i := range agents {
		agents[i] = core.Agent[core.Coord]{State: coord()}
	}

	tasks := make([]core.Task[core.Coord], p.TaskCount)
	for i := range tasks {
		tasks[i] = core.Task[core.Coord]{ID: core.TaskID(i), From: coord(), To: coord()}
	}

	inst := core.NewInstance(agents, tasks)
	inst.Name = p.Name()
	return inst, nil
}

// Scaling returns parameters for a series of growing instances. Exhaustive
// search is exponential, so sizes stay small: each step adds one task, and
// agents grow every other step.
func Scaling(seed int64, maxTasks int) []Params {
	var out []Params
	for n := 1; n <= maxTasks; n++ {
		m := 1 + (n-1)/2
		grid := int(math.Max(5, math.Ceil(math.Sqrt(float64(n))*3)))
		out = append(out, Params{Seed: seed, NumAgents: m, TaskCount: n, GridSize: grid})
	}
	return out
}

// Save writes the instance of p into dir and returns the file path.
func Save(dir string, p Params, inst *core.Instance[core.Coord]) (string, error) {
	f := File{
		Name:      p.Name(),
		Params:    p,
		Instance:  inst,
		Generated: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal instance %s: %w", f.Name, err)
	}

	path := filepath.Join(dir, f.Name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write instance %s: %w", path, err)
	}
	return path, nil
}

// Load reads and validates an instance file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instance %s: %w", path, err)
	}
	if f.Instance == nil {
		return nil, fmt.Errorf("%w: %s has no instance", core.ErrInvalidConfiguration, path)
	}
	if err := f.Instance.Validate(); err != nil {
		return nil, fmt.Errorf("instance %s: %w", path, err)
	}
	return &f, nil
}

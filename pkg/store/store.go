// Package store provides in-memory storage for scripts and runs.
package store

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// RunState represents the state of a script run.
type RunState string

const (
	RunActive    RunState = "ACTIVE"
	RunSucceeded RunState = "SUCCEEDED"
	RunFailed    RunState = "FAILED"
	RunCancelled RunState = "CANCELLED"
)

// Script represents a stored script.
type Script struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	Revision    string    `json:"revision"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// Run represents one evaluation of a script.
type Run struct {
	Name           string    `json:"name"`
	ScriptID       string    `json:"scriptId"`
	ScriptRevision string    `json:"scriptRevision"`
	State          RunState  `json:"state"`
	Output         string    `json:"output,omitempty"`
	Result         string    `json:"result,omitempty"`
	Error          string    `json:"error,omitempty"`
	Steps          int       `json:"steps"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime,omitempty"`
}

// Store is a thread-safe in-memory storage for scripts and runs. Accessors
// return copies; run records change only through the Complete, Fail and
// Cancel methods.
type Store struct {
	mu      sync.RWMutex
	scripts map[string]*Script
	runs    map[string]*Run

	// Counter for generating unique run names
	runCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		scripts: make(map[string]*Script),
		runs:    make(map[string]*Run),
	}
}

// CreateScript creates a new script.
func (s *Store) CreateScript(id, source, description string) (*Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scripts[id]; exists {
		return nil, fmt.Errorf("script '%s' already exists", id)
	}

	now := time.Now()
	sc := &Script{
		ID:          id,
		Description: description,
		Source:      source,
		Revision:    fmt.Sprintf("%06d", 1),
		CreateTime:  now,
		UpdateTime:  now,
	}
	s.scripts[id] = sc

	cp := *sc
	return &cp, nil
}

// GetScript retrieves a script by ID.
func (s *Store) GetScript(id string) (*Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scripts[id]
	if !ok {
		return nil, fmt.Errorf("script '%s' not found", id)
	}

	cp := *sc
	return &cp, nil
}

// ListScripts returns all scripts ordered by ID.
func (s *Store) ListScripts() []*Script {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Script, 0, len(s.scripts))
	for _, sc := range s.scripts {
		cp := *sc
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// UpdateScript updates a script's source and/or description. Empty fields
// keep their stored value; a source change bumps the revision.
func (s *Store) UpdateScript(id, source, description string) (*Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scripts[id]
	if !ok {
		return nil, fmt.Errorf("script '%s' not found", id)
	}

	if source != "" {
		sc.Source = source
		rev, _ := strconv.Atoi(sc.Revision)
		sc.Revision = fmt.Sprintf("%06d", rev+1)
	}
	if description != "" {
		sc.Description = description
	}
	sc.UpdateTime = time.Now()

	cp := *sc
	return &cp, nil
}

// DeleteScript removes a script. Its runs stay retrievable by name.
func (s *Store) DeleteScript(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scripts[id]; !ok {
		return fmt.Errorf("script '%s' not found", id)
	}
	delete(s.scripts, id)
	return nil
}

// CreateRun creates a new active run for a script.
func (s *Store) CreateRun(scriptID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scripts[scriptID]
	if !ok {
		return nil, fmt.Errorf("script '%s' not found", scriptID)
	}

	s.runCounter++
	run := &Run{
		Name:           fmt.Sprintf("run-%d", s.runCounter),
		ScriptID:       scriptID,
		ScriptRevision: sc.Revision,
		State:          RunActive,
		StartTime:      time.Now(),
	}
	s.runs[run.Name] = run

	cp := *run
	return &cp, nil
}

// GetRun retrieves a run by name.
func (s *Store) GetRun(name string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[name]
	if !ok {
		return nil, fmt.Errorf("run '%s' not found", name)
	}

	cp := *run
	return &cp, nil
}

// ListRuns returns all runs for a script, newest first.
func (s *Store) ListRuns(scriptID string) []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Run
	for _, run := range s.runs {
		if run.ScriptID == scriptID {
			cp := *run
			result = append(result, &cp)
		}
	}
	sortRuns(result)
	return result
}

// ListAllRuns returns every run across all scripts, newest first.
func (s *Store) ListAllRuns() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		cp := *run
		result = append(result, &cp)
	}
	sortRuns(result)
	return result
}

func sortRuns(runs []*Run) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartTime.Equal(runs[j].StartTime) {
			return runs[i].Name > runs[j].Name
		}
		return runs[i].StartTime.After(runs[j].StartTime)
	})
}

// CompleteRun marks a run as succeeded. A run that already reached a
// terminal state (a cancelled run in particular) is left untouched.
func (s *Store) CompleteRun(name, result, output string, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[name]
	if !ok {
		return fmt.Errorf("run '%s' not found", name)
	}
	if run.State != RunActive {
		return nil
	}

	run.State = RunSucceeded
	run.Result = result
	run.Output = output
	run.Steps = steps
	run.EndTime = time.Now()
	return nil
}

// FailRun marks a run as failed. A run that already reached a terminal
// state is left untouched.
func (s *Store) FailRun(name string, runErr error, output string, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[name]
	if !ok {
		return fmt.Errorf("run '%s' not found", name)
	}
	if run.State != RunActive {
		return nil
	}

	run.State = RunFailed
	run.Error = runErr.Error()
	run.Output = output
	run.Steps = steps
	run.EndTime = time.Now()
	return nil
}

// CancelRun marks an active run as cancelled.
func (s *Store) CancelRun(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[name]
	if !ok {
		return fmt.Errorf("run '%s' not found", name)
	}

	if run.State != RunActive {
		return fmt.Errorf("run '%s' is not active (state: %s)", name, run.State)
	}

	run.State = RunCancelled
	run.EndTime = time.Now()
	return nil
}

// Package store records analysis runs so past trainings and scorings
// can be audited from the CLI.
package store

import (
	"context"
	"time"
)

// RunStatus represents the state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID         string         `json:"id"`
	Command    string         `json:"command"` // spc, train, predict, summary, defects
	Params     map[string]any `json:"params,omitempty"`
	InputRows  int            `json:"input_rows"`
	OutputRows int            `json:"output_rows"`
	Artifacts  []string       `json:"artifacts,omitempty"` // files written by the run
	Status     RunStatus      `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Command string    `json:"command,omitempty"`
	Status  RunStatus `json:"status,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// Store defines the run registry persistence interface.
type Store interface {
	CreateRun(ctx context.Context, command string, params map[string]any, inputRows int) (*Run, error)
	CompleteRun(ctx context.Context, runID string, status RunStatus, outputRows int, artifacts []string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

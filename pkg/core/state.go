package core

import (
	"context"
	"time"
)

// Store defines the interface for state management operations.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Build operations
	CreateBuild(ctx context.Context, dataset string, edgeIndex string) (*Build, error)
	CompleteBuild(ctx context.Context, id string, status BuildStatus, summary BuildSummary, errMsg string) error
	GetBuild(ctx context.Context, id string) (*Build, error)
	ListBuilds(ctx context.Context, limit int) ([]*Build, error)
	RecordEdgeGroups(ctx context.Context, buildID string, groups []EdgeGroupStat) error
	GetEdgeGroups(ctx context.Context, buildID string) ([]EdgeGroupStat, error)

	// Window set operations
	SaveWindows(ctx context.Context, name string, windows []TimeWindow) (string, error)
	GetWindows(ctx context.Context, id string) ([]TimeWindow, error)
}

// BuildStatus represents the status of a graph build.
type BuildStatus string

// Build status constants.
const (
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
)

// Build is one recorded graph construction.
type Build struct {
	ID          string
	Dataset     string
	EdgeIndex   string
	Status      BuildStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Summary     BuildSummary
	Error       string
}

// BuildSummary holds the size of a built graph.
type BuildSummary struct {
	NodeGroups int
	EdgeGroups int
	NumNodes   int64
	NumEdges   int64
}

// EdgeGroupStat is the recorded size of one edge group.
type EdgeGroupStat struct {
	Type     EdgeType
	NumEdges int64
}

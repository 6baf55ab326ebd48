package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a persisted background job record. Status survives process
// restarts because it lives in the database, not in memory.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
	loadSql "github.com/siherrmann/tripler/sql"
)

// JobsDBHandlerFunctions defines the interface for Jobs database operations.
type JobsDBHandlerFunctions interface {
	InsertJob(job *model.Job) error
	UpdateJobStatus(id uuid.UUID, status model.JobStatus, jobError string) error
	SelectJob(id uuid.UUID) (*model.Job, error)
}

// JobsDBHandler persists background job status so it survives restarts.
type JobsDBHandler struct {
	db *helper.Database
}

// NewJobsDBHandler creates a new jobs database handler.
// It initializes the database connection and loads job-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewJobsDBHandler(db *helper.Database, force bool) (*JobsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	jobsDbHandler := &JobsDBHandler{
		db: db,
	}

	err := loadSql.LoadJobsSql(jobsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load jobs sql", err)
	}

	err = jobsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized JobsDBHandler")

	return jobsDbHandler, nil
}

// CreateTable creates the 'jobs' table in the database.
// If the table already exists, it does not create it again.
func (h *JobsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_jobs();`)
	if err != nil {
		log.Panicf("error initializing jobs table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table jobs")

	return nil
}

// InsertJob inserts a new queued job
func (h *JobsDBHandler) InsertJob(job *model.Job) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_job($1, $2)`,
		job.Kind,
		job.Metadata,
	)

	return scanJob(row, job)
}

// UpdateJobStatus transitions a job to the given status
func (h *JobsDBHandler) UpdateJobStatus(id uuid.UUID, status model.JobStatus, jobError string) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_job_status($1, $2, $3)`,
		id,
		string(status),
		jobError,
	)

	job := &model.Job{}
	return scanJob(row, job)
}

// SelectJob retrieves a job by ID
func (h *JobsDBHandler) SelectJob(id uuid.UUID) (*model.Job, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_job($1)`,
		id,
	)

	job := &model.Job{}
	if err := scanJob(row, job); err != nil {
		return nil, err
	}

	return job, nil
}

func scanJob(s rowScanner, job *model.Job) error {
	err := s.Scan(
		&job.ID,
		&job.Kind,
		&job.Status,
		&job.Error,
		&job.Metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/MarkdownViewer/core/cache"
	cerrors "github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/internal/logging"
	"github.com/FocuswithJustin/MarkdownViewer/internal/server"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether a job in this state will not change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// Job is an asynchronous render. Handlers only ever see copies.
type Job struct {
	ID          string          `json:"id"`
	Status      JobStatus       `json:"status"`
	Result      *RenderResponse `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	CompletedAt string          `json:"completed_at,omitempty"`

	text   string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Finished jobs are kept for polling until they expire or are pushed out
// by newer ones.
const (
	DefaultJobRetention = time.Hour
	DefaultMaxFinished  = 1000
)

// JobStore manages render jobs in memory. Pending and running jobs are held
// until they finish; finished jobs move to a bounded cache with a TTL.
type JobStore struct {
	active   map[string]*Job
	finished cache.Cache[string, Job]
	mu       sync.RWMutex
}

// NewJobStore creates a job store that keeps up to maxFinished finished
// jobs for retention each. Zero or negative values use the defaults.
func NewJobStore(retention time.Duration, maxFinished int) *JobStore {
	if retention <= 0 {
		retention = DefaultJobRetention
	}
	if maxFinished <= 0 {
		maxFinished = DefaultMaxFinished
	}
	return &JobStore{
		active: make(map[string]*Job),
		finished: cache.NewLRUCache(cache.Config[string, Job]{
			MaxSize: maxFinished,
			TTL:     retention,
		}),
	}
}

// Create registers a pending job for text.
func (s *JobStore) Create(text string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := timestamp()

	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		text:      text,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.active[job.ID] = job
	return *job
}

// Get returns a snapshot of a job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if job, ok := s.active[id]; ok {
		return *job, true
	}
	return s.finished.Get(id)
}

// Len returns the number of known jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active) + s.finished.Len()
}

// Active returns the number of pending and running jobs.
func (s *JobStore) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// Update moves a job to status. Finished jobs are left alone, so a render
// finishing after a cancel does not resurrect the job.
func (s *JobStore) Update(id string, status JobStatus, result *RenderResponse, errMsg string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.active[id]
	if !exists {
		if done, ok := s.finished.Get(id); ok {
			return done, nil
		}
		return Job{}, cerrors.NewNotFound("job", id)
	}

	job.Status = status
	job.UpdatedAt = timestamp()
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status.Terminal() {
		s.finish(job)
	}
	return *job, nil
}

// Cancel cancels a pending or running job.
func (s *JobStore) Cancel(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.active[id]
	if !exists {
		if done, ok := s.finished.Get(id); ok {
			return done, cerrors.NewValidation("status", "job already "+string(done.Status))
		}
		return Job{}, cerrors.NewNotFound("job", id)
	}

	job.Status = JobStatusCancelled
	job.Error = "Job cancelled by user"
	job.UpdatedAt = timestamp()
	s.finish(job)
	return *job, nil
}

// CancelAll cancels every unfinished job.
func (s *JobStore) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.active {
		job.Status = JobStatusCancelled
		job.UpdatedAt = timestamp()
		s.finish(job)
	}
}

// Wait blocks until the job is finished or ctx is done.
func (s *JobStore) Wait(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	job, active := s.active[id]
	s.mu.RUnlock()
	if !active {
		if done, ok := s.Get(id); ok {
			return done, nil
		}
		return Job{}, cerrors.NewNotFound("job", id)
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
	snap, _ := s.Get(id)
	return snap, nil
}

// finish must be called with the lock held. The source text is dropped and
// the job moves to the finished cache.
func (s *JobStore) finish(job *Job) {
	job.CompletedAt = job.UpdatedAt
	job.text = ""
	job.cancel()
	close(job.done)
	delete(s.active, job.ID)
	s.finished.Put(job.ID, *job)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// runJob renders a job in the background and announces the outcome to
// WebSocket clients.
func (s *Server) runJob(job Job) {
	go func() {
		if _, err := s.jobs.Update(job.ID, JobStatusRunning, nil, ""); err != nil {
			return
		}
		logging.JobEvent(job.ID, string(JobStatusRunning))

		if job.ctx.Err() != nil {
			return
		}
		res, hash, hit := s.render(job.ctx, job.text)
		result := &RenderResponse{
			Hash:       hash,
			Structures: res.Structures,
			Status:     res.Status,
			SVG:        res.SVG,
			Cached:     hit,
		}
		if res.Err != nil {
			result.Error = res.Err.Error()
		}

		final, err := s.jobs.Update(job.ID, JobStatusCompleted, result, "")
		if err != nil {
			return
		}
		logging.JobEvent(job.ID, string(final.Status), "hash", hash, "render_status", res.Status)
		s.hub.Broadcast(WSMessage{Type: MessageJob, ID: final.ID, Job: &final})
	}()
}

// handleJobs handles POST /jobs - create a render job.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	text, ok := s.readBody(w, r, server.AllowedDrawingContentTypes)
	if !ok {
		return
	}

	job := s.jobs.Create(text)
	logging.JobEvent(job.ID, string(JobStatusPending), "bytes", len(text))
	s.runJob(job)

	respond(w, http.StatusAccepted, job)
}

// handleJobByID handles GET /jobs/{id} - get job status and DELETE /jobs/{id} - cancel job.
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getJobHandler(w, id)
	case http.MethodDelete:
		s.cancelJobHandler(w, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func (s *Server) getJobHandler(w http.ResponseWriter, id string) {
	job, exists := s.jobs.Get(id)
	if !exists {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}

	respond(w, http.StatusOK, job)
}

func (s *Server) cancelJobHandler(w http.ResponseWriter, id string) {
	job, err := s.jobs.Cancel(id)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusConflict, "CANCEL_FAILED", err.Error())
		return
	}

	logging.JobEvent(id, string(JobStatusCancelled))
	respond(w, http.StatusOK, job)
}

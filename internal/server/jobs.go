package server

import (
	"context"
	"fmt"
	"time"

	"github.com/serpscope/serpscope/internal/types"
)

// Job statuses.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job tracks one async analysis from creation to expiry. All fields
// are read and written under the server's jobs lock; handlers serve
// copies.
type Job struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Status    string     `json:"status"`
	Stage     string     `json:"stage,omitempty"`
	Percent   int        `json:"percent"`
	Message   string     `json:"message,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`

	// Result is attached once the job completes.
	Result *types.Analysis `json:"result,omitempty"`
}

func (s *Server) startJob(query string) Job {
	job := &Job{
		ID:        fmt.Sprintf("job-%d-%d", time.Now().UnixMilli(), s.jobSeq.Add(1)),
		Query:     query,
		Status:    JobPending,
		Message:   "queued",
		StartedAt: time.Now(),
	}

	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	go s.runJob(job.ID, query)
	return *job
}

func (s *Server) runJob(id, query string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.updateJob(id, func(j *Job) {
		j.Status = JobRunning
		j.Message = "starting"
	})

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	// The analyzer drops events when nobody listens, so the drain
	// goroutine runs for the whole analysis and empties the buffer
	// once Run returns.
	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case ev := <-s.deps.Runner.Progress():
				s.applyProgress(id, ev)
			case <-stop:
				for {
					select {
					case ev := <-s.deps.Runner.Progress():
						s.applyProgress(id, ev)
					default:
						return
					}
				}
			}
		}
	}()

	a, err := s.deps.Runner.Run(ctx, query)
	close(stop)
	<-drained

	now := time.Now()
	if err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.AnalysesFailed.Add(1)
		}
		s.logger.Error("analyze job failed", "job", id, "query", query, "error", err)
		s.updateJob(id, func(j *Job) {
			j.Status = JobFailed
			j.Error = err.Error()
			j.Message = "failed"
			j.EndedAt = &now
		})
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordRun(a)
		if s.deps.Store != nil {
			s.deps.Metrics.AnalysesStored.Add(1)
		}
	}
	s.logger.Info("analyze job done", "job", id, "query", query, "pages", a.Analyzed)
	s.updateJob(id, func(j *Job) {
		j.Status = JobDone
		j.Percent = 100
		j.Message = "complete"
		j.EndedAt = &now
		j.Result = a
	})
}

func (s *Server) applyProgress(id string, ev types.ProgressEvent) {
	s.updateJob(id, func(j *Job) {
		j.Stage = ev.Stage
		j.Percent = ev.Percent
		j.Message = ev.Message
	})
}

func (s *Server) updateJob(id string, fn func(*Job)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

// getJob returns a copy; the result pointer is shared but analyses are
// immutable once built.
func (s *Server) getJob(id string) (Job, bool) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (s *Server) listJobs() []Job {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// sweepJobs evicts finished jobs older than the configured TTL.
func (s *Server) sweepJobs(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ttl := s.cfg.Server.JobTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			s.jobsMu.Lock()
			for id, j := range s.jobs {
				if j.EndedAt != nil && j.EndedAt.Before(cutoff) {
					delete(s.jobs, id)
				}
			}
			s.jobsMu.Unlock()
		}
	}
}

package podcast

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a mutex-guarded in-process Store. It honors the same
// contract as SQLStore but offers no persistence beyond the process
// lifetime; it backs tests and single-binary development runs.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Put(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return ErrJobExists
	}

	clone := *job
	clone.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	s.jobs[job.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}

	clone := *job
	clone.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	return &clone, nil
}

func (s *MemoryStore) Update(_ context.Context, jobID string, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}

	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Stage != nil {
		job.Stage = *update.Stage
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.ScriptPath != nil {
		job.ScriptPath = update.ScriptPath
	}
	if update.AudioPath != nil {
		job.AudioPath = update.AudioPath
	}
	if update.DurationSeconds != nil {
		job.DurationSeconds = update.DurationSeconds
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
	if update.FailedAt != nil {
		job.FailedAt = update.FailedAt
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = update.ErrorMessage
	}

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, jobID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID > jobs[j].ID
	})

	if filter.Cursor != nil {
		cut := 0
		for cut < len(jobs) {
			j := jobs[cut]
			if j.CreatedAt.Before(filter.Cursor.CreatedAt) ||
				(j.CreatedAt.Equal(filter.Cursor.CreatedAt) && j.ID < filter.Cursor.JobID) {
				break
			}
			cut++
		}
		jobs = jobs[cut:]
	}

	if filter.PageSize > 0 && len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}

	return jobs, nil
}

package infrastructure

import (
	"fmt"
	"sync"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// MemoryJobRegistry is the in-memory implementation of the job registry.
// Jobs stay registered until an external retention policy deletes them.
type MemoryJobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemoryJobRegistry creates an empty registry.
func NewMemoryJobRegistry() *MemoryJobRegistry {
	return &MemoryJobRegistry{
		jobs: make(map[string]*domain.Job),
	}
}

// Put registers a job. Registering the same id twice is an error.
func (r *MemoryJobRegistry) Put(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already registered", job.ID)
	}
	r.jobs[job.ID] = job
	return nil
}

// Get returns the job for an id, or domain.ErrJobNotFound.
func (r *MemoryJobRegistry) Get(id string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

// Delete evicts a job from the registry.
func (r *MemoryJobRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(r.jobs, id)
	return nil
}

// Range calls fn for each registered job until fn returns false.
func (r *MemoryJobRegistry) Range(fn func(job *domain.Job) bool) {
	r.mu.RLock()
	jobs := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	r.mu.RUnlock()

	for _, job := range jobs {
		if !fn(job) {
			return
		}
	}
}

// Count returns the number of registered jobs.
func (r *MemoryJobRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

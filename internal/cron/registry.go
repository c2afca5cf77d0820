package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is a unit of scheduled work run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs keyed by name, preserving registration order.
type Registry struct {
	order []string
	jobs  map[string]Job
}

// NewRegistry builds a registry from jobs. Nil jobs are skipped.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds job. Blank and duplicate names are rejected.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if r.jobs == nil {
		r.jobs = map[string]Job{}
	}
	if _, ok := r.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	r.jobs[name] = job
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.jobs[strings.TrimSpace(name)]
	return job, ok
}

// Names lists job names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.jobs[name])
	}
	return jobs
}

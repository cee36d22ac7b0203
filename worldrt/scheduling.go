package worldrt

import (
	"sort"

	"github.com/luxfi/agentworld/proto"
)

// ScheduledJob is a deferred completion: a factory build, recipe, or
// transit arrival that fires once the world clock reaches ReadyAt.
type ScheduledJob struct {
	JobID    string               `cbor:"job_id"`
	AgentID  string               `cbor:"agent_id,omitempty"`
	ReadyAt  proto.WorldTime      `cbor:"ready_at"`
	Priority int32                `cbor:"priority"`
	Kind     proto.DomainEventKind `cbor:"kind"`

	FactoryID string `cbor:"factory_id,omitempty"`
	RecipeID  string `cbor:"recipe_id,omitempty"`
}

// Scheduler holds every pending job, keyed by job id so duplicate
// submissions are idempotent.
type Scheduler struct {
	Jobs map[string]ScheduledJob `cbor:"jobs"`
}

// NewScheduler returns an empty scheduler.
func NewScheduler() Scheduler {
	return Scheduler{Jobs: map[string]ScheduledJob{}}
}

// Clone deep-copies the scheduler.
func (s Scheduler) Clone() Scheduler {
	out := Scheduler{Jobs: make(map[string]ScheduledJob, len(s.Jobs))}
	for id, job := range s.Jobs {
		out.Jobs[id] = job
	}
	return out
}

// Schedule inserts or replaces a job.
func (s *Scheduler) Schedule(job ScheduledJob) {
	s.Jobs[job.JobID] = job
}

// Cancel removes a pending job, reporting whether one existed.
func (s *Scheduler) Cancel(jobID string) bool {
	if _, ok := s.Jobs[jobID]; !ok {
		return false
	}
	delete(s.Jobs, jobID)
	return true
}

// DueJobs returns every job with ReadyAt <= now, ordered by
// (ready_at, priority, job_id) ascending — priority breaks ties among
// equal-time jobs, job_id breaks remaining ties deterministically. Due
// jobs are removed from the scheduler.
func (s *Scheduler) DueJobs(now proto.WorldTime) []ScheduledJob {
	var due []ScheduledJob
	for _, job := range s.Jobs {
		if job.ReadyAt <= now {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].ReadyAt != due[j].ReadyAt {
			return due[i].ReadyAt < due[j].ReadyAt
		}
		if due[i].Priority != due[j].Priority {
			return due[i].Priority < due[j].Priority
		}
		return due[i].JobID < due[j].JobID
	})
	for _, job := range due {
		delete(s.Jobs, job.JobID)
	}
	return due
}

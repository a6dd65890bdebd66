package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/rackseed/internal/log"
)

// TaskHandler is the work of a scheduled task. The returned string summarises
// a successful run.
type TaskHandler func(ctx context.Context) (string, error)

// Task is a recurring job registered with the scheduler
type Task struct {
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	NextRun time.Time  `json:"next_run"`
	LastRun *time.Time `json:"last_run,omitempty"`
	Status  string     `json:"status"` // "pending", "running", "completed", "failed"
	Summary string     `json:"summary,omitempty"`
	LastErr string     `json:"last_error,omitempty"`
	entryID cron.EntryID
	handler TaskHandler
}

// Scheduler fires tasks on cron expressions and runs them through the pool,
// so they never overlap with other store writers.
type Scheduler struct {
	mu      sync.RWMutex
	cron    *cron.Cron
	pool    *WorkerPool
	tasks   map[string]*Task
	running bool
}

// NewScheduler creates a scheduler that submits its tasks to pool
func NewScheduler(pool *WorkerPool) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		pool:  pool,
		tasks: make(map[string]*Task),
	}
}

// AddTask registers handler under name on a standard five-field cron spec
func (s *Scheduler) AddTask(name, spec string, handler TaskHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("task %s already registered", name)
	}

	task := &Task{Name: name, Spec: spec, Status: "pending", handler: handler}
	id, err := s.cron.AddFunc(spec, func() { s.runTask(task) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	task.entryID = id
	s.tasks[name] = task

	log.Info("Task registered", "task", name, "schedule", spec)
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.Info("Starting background scheduler", "tasks", len(s.tasks))
}

// Stop stops firing tasks and waits for a running one to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// Tasks returns a snapshot of the registered tasks
func (s *Scheduler) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		snapshot := *t
		snapshot.NextRun = s.cron.Entry(t.entryID).Next
		tasks = append(tasks, snapshot)
	}
	return tasks
}

func (s *Scheduler) runTask(task *Task) {
	s.mu.Lock()
	if task.Status == "running" {
		s.mu.Unlock()
		log.Warn("Skipping task still running", "task", task.Name)
		return
	}
	task.Status = "running"
	now := time.Now()
	task.LastRun = &now
	s.mu.Unlock()

	log.Info("Running task", "task", task.Name)

	var summary string
	err := s.pool.Do(context.Background(), task.Name, func(ctx context.Context) error {
		var err error
		summary, err = task.handler(ctx)
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		task.Status = "failed"
		task.LastErr = err.Error()
		log.Error("Task failed", "task", task.Name, "error", err)
		return
	}
	task.Status = "completed"
	task.Summary = summary
	task.LastErr = ""
	log.Info("Task completed", "task", task.Name, "summary", summary)
}

// Package scheduler 基于 gocron/v2 的后台任务调度，管线的补扫任务跑在这里.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// JobInfo 任务的运行快照，供监控查询.
type JobInfo struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"last_run"`
	Status   JobStatus     `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// Scheduler 按名字管理定时任务.
type Scheduler struct {
	inner gocron.Scheduler

	mu    sync.RWMutex
	jobs  map[string]gocron.Job
	infos map[string]*JobInfo

	logger zerolog.Logger
}

// NewScheduler 创建调度器，不自动启动.
func NewScheduler() (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		inner:  inner,
		jobs:   make(map[string]gocron.Job),
		infos:  make(map[string]*JobInfo),
		logger: log.Component("scheduler"),
	}, nil
}

// AddInterval 注册固定间隔任务；同名任务只能注册一次.
// 任务函数里的 panic 被捕获并记入状态，不会带崩调度器.
func (s *Scheduler) AddInterval(name string, interval time.Duration, job func(ctx context.Context), ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %s already registered", name)
	}

	run := func(ctx context.Context) {
		s.setStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.setStatus(name, StatusError, fmt.Sprintf("panic: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()

		job(ctx)
		s.setStatus(name, StatusScheduled, "")
	}

	j, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(run, ctx),
		gocron.WithName(name),
		gocron.WithEventListeners(
			gocron.AfterJobRuns(func(_ uuid.UUID, jobName string) {
				s.touch(jobName)
			}),
		),
	)
	if err != nil {
		return err
	}

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:       j.ID().String(),
		Name:     name,
		Interval: interval,
		Status:   StatusScheduled,
	}

	s.logger.Info().Str("job", name).Dur("interval", interval).Msg("interval job registered")

	return nil
}

func (s *Scheduler) setStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		info.Status = status
		info.Error = errMsg
	}
}

func (s *Scheduler) touch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		info.LastRun = time.Now()
	}
}

// GetJobInfoByName 查询任务快照.
func (s *Scheduler) GetJobInfoByName(name string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.infos[name]
	if !ok {
		return nil, fmt.Errorf("job %s not registered", name)
	}

	return info, nil
}

// RemoveJobByName 按名字移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}

	if err := s.inner.RemoveJob(job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	return nil
}

// Start 启动调度.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("scheduler started")
	s.inner.Start()
}

// Stop 停止调度，等待在跑任务收尾.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("scheduler stopping")

	return s.inner.Shutdown()
}

// Jobs 返回全部已注册任务.
func (s *Scheduler) Jobs() []gocron.Job {
	return s.inner.Jobs()
}

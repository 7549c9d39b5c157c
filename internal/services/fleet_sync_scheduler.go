package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sitehub/internal/fleet"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrSyncInProgress 已有全量同步在运行
var ErrSyncInProgress = errors.New("全量同步正在进行中")

// FleetSyncer 全量同步
type FleetSyncer interface {
	SyncAll(ctx context.Context) (*fleet.Result, error)
}

// FleetSyncScheduler 全量同步调度器：定时触发，同一时刻最多一次运行，并保留最近一次结果
type FleetSyncScheduler struct {
	syncer   FleetSyncer
	cronExpr string
	cron     *cron.Cron
	entryID  cron.EntryID
	log      *logrus.Logger

	mu      sync.RWMutex
	running bool
	syncing bool
	last    *FleetSyncRun
}

// FleetSyncRun 一次全量同步的记录
type FleetSyncRun struct {
	Result     *fleet.Result `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	Trigger    string        `json:"trigger"`
	FinishedAt time.Time     `json:"finished_at"`
}

// 触发方式
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// NewFleetSyncScheduler 创建全量同步调度器，cronExpr 为空时只支持手动触发
func NewFleetSyncScheduler(syncer FleetSyncer, cronExpr string, log *logrus.Logger) *FleetSyncScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FleetSyncScheduler{
		syncer:   syncer,
		cronExpr: cronExpr,
		cron:     cron.New(),
		log:      log,
	}
}

// Start 启动调度器
func (s *FleetSyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}
	if s.cronExpr == "" {
		s.log.Info("未配置全量同步定时表达式，仅支持手动触发")
		return nil
	}
	if _, err := cron.ParseStandard(s.cronExpr); err != nil {
		return fmt.Errorf("无效的cron表达式 %s: %w", s.cronExpr, err)
	}

	entryID, err := s.cron.AddFunc(s.cronExpr, s.executeScheduled)
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.log.Infof("全量同步调度器启动成功，cron: %s", s.cronExpr)
	return nil
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *FleetSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("停止全量同步调度器")
	<-s.cron.Stop().Done()
}

func (s *FleetSyncScheduler) executeScheduled() {
	if _, err := s.run(context.Background(), TriggerScheduled); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.log.Warn("上一次全量同步尚未结束，跳过本次定时触发")
			return
		}
		s.log.Errorf("定时全量同步失败: %v", err)
	}
}

// RunNow 立即执行一次全量同步
func (s *FleetSyncScheduler) RunNow(ctx context.Context) (*fleet.Result, error) {
	return s.run(ctx, TriggerManual)
}

func (s *FleetSyncScheduler) run(ctx context.Context, trigger string) (result *fleet.Result, err error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.syncing = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("全量同步发生panic: %v", r)
			s.log.Error(err.Error())
		}
		last := &FleetSyncRun{Result: result, Trigger: trigger, FinishedAt: time.Now()}
		if err != nil {
			last.Error = err.Error()
		}

		s.mu.Lock()
		s.syncing = false
		s.last = last
		s.mu.Unlock()
	}()

	return s.syncer.SyncAll(ctx)
}

// LastRun 最近一次全量同步，尚未运行过时返回 false
func (s *FleetSyncScheduler) LastRun() (*FleetSyncRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// GetStatus 调度器状态
func (s *FleetSyncScheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"running":      s.running,
		"cron":         s.cronExpr,
		"syncing":      s.syncing,
		"current_time": time.Now(),
	}
	if s.last != nil {
		status["last_run_at"] = s.last.FinishedAt
	}
	if s.running {
		if entry := s.cron.Entry(s.entryID); entry.ID != 0 {
			status["next_run"] = entry.Next
		}
	}
	return status
}

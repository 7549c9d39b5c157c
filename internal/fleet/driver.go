// Package fleet 把迁移目录推送到所有租户库。
//
// 每个租户独立同步，没有跨租户事务；单个租户失败只记录在结果中，不影响其他租户。
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"sitehub/internal/models"
	"sitehub/internal/schema"
	"sitehub/internal/store"

	"github.com/sirupsen/logrus"
)

// ControlPlaneName 控制面库在结果中的名称
const ControlPlaneName = "control-plane"

// ErrTenantPanic 同步过程中发生panic
var ErrTenantPanic = errors.New("同步租户时发生panic")

// TenantLister 枚举租户
type TenantLister interface {
	List(ctx context.Context, status string) ([]models.Tenant, error)
}

// Opener 打开租户库
type Opener interface {
	Open(ctx context.Context, identifier string) (store.Handle, error)
}

// Synchronizer 单库同步
type Synchronizer interface {
	Sync(ctx context.Context, h store.Handle, discoverer schema.Discoverer) (*schema.Report, error)
}

// CacheInvalidator 租户缓存失效
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, tenant string) error
}

// Options 全量同步配置
type Options struct {
	Concurrency   int
	TenantTimeout time.Duration
	// ControlPlane 非空时同时同步控制面库（它也带有标准内容表）
	ControlPlane store.Handle
}

// TenantOutcome 单个租户的同步结果
type TenantOutcome struct {
	Tenant   string         `json:"tenant"`
	Store    string         `json:"store"`
	Report   *schema.Report `json:"report,omitempty"`
	Err      error          `json:"-"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Result 全量同步结果；部分失败不视为整体失败
type Result struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  []TenantOutcome `json:"succeeded"`
	Failed     []TenantOutcome `json:"failed"`
	Skipped    []string        `json:"skipped"` // 取消前未开始的租户
	Cancelled  bool            `json:"cancelled"`
}

// OK 所有租户都同步成功
func (r *Result) OK() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// SucceededNames 成功的租户名
func (r *Result) SucceededNames() []string {
	return names(r.Succeeded)
}

// FailedNames 失败的租户名
func (r *Result) FailedNames() []string {
	return names(r.Failed)
}

func names(outcomes []TenantOutcome) []string {
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.Tenant)
	}
	return out
}

type target struct {
	name       string
	identifier string
	borrowed   store.Handle
}

// Driver 全量同步驱动
type Driver struct {
	opts       Options
	tenants    TenantLister
	opener     Opener
	sync       Synchronizer
	discoverer schema.Discoverer
	cache      CacheInvalidator
	log        *logrus.Logger
}

// NewDriver 创建全量同步驱动
func NewDriver(opts Options, tenants TenantLister, opener Opener, sync Synchronizer,
	discoverer schema.Discoverer, cache CacheInvalidator, log *logrus.Logger) *Driver {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{
		opts:       opts,
		tenants:    tenants,
		opener:     opener,
		sync:       sync,
		discoverer: discoverer,
		cache:      cache,
		log:        log,
	}
}

// SyncAll 同步所有 active 租户；只有枚举租户失败时返回错误
func (d *Driver) SyncAll(ctx context.Context) (*Result, error) {
	result := &Result{
		StartedAt: time.Now(),
		Succeeded: []TenantOutcome{},
		Failed:    []TenantOutcome{},
		Skipped:   []string{},
	}

	targets, err := d.targets(ctx)
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{
		"tenants":     len(targets),
		"concurrency": d.opts.Concurrency,
	}).Info("开始全量同步")

	semaphore := make(chan struct{}, d.opts.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, t := range targets {
		select {
		case <-ctx.Done():
		case semaphore <- struct{}{}:
		}
		if ctx.Err() != nil {
			mu.Lock()
			for _, rest := range targets[i:] {
				result.Skipped = append(result.Skipped, rest.name)
			}
			result.Cancelled = true
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(t target) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			outcome := d.syncOne(ctx, t)
			mu.Lock()
			if outcome.Err != nil {
				result.Failed = append(result.Failed, outcome)
			} else {
				result.Succeeded = append(result.Succeeded, outcome)
			}
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	sortOutcomes(result.Succeeded)
	sortOutcomes(result.Failed)
	result.FinishedAt = time.Now()

	entry := d.log.WithFields(logrus.Fields{
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"skipped":   len(result.Skipped),
		"duration":  result.FinishedAt.Sub(result.StartedAt).String(),
	})
	if result.OK() {
		entry.Info("全量同步完成")
	} else {
		entry.Warn("全量同步完成，存在未成功的租户")
	}
	return result, nil
}

// targets 只在开始时读取一次注册表
func (d *Driver) targets(ctx context.Context) ([]target, error) {
	tenants, err := d.tenants.List(ctx, models.TenantStatusActive)
	if err != nil {
		return nil, fmt.Errorf("枚举租户失败: %w", err)
	}

	targets := make([]target, 0, len(tenants)+1)
	if d.opts.ControlPlane != nil {
		targets = append(targets, target{
			name:       ControlPlaneName,
			identifier: d.opts.ControlPlane.Identifier(),
			borrowed:   d.opts.ControlPlane,
		})
	}
	for _, t := range tenants {
		targets = append(targets, target{name: t.Name, identifier: t.StoreIdentifier})
	}
	return targets, nil
}

// syncOne 同步一个租户：独立超时，panic 只影响本租户，连接在任何路径上都会关闭
func (d *Driver) syncOne(parent context.Context, t target) (outcome TenantOutcome) {
	start := time.Now()
	outcome = TenantOutcome{Tenant: t.name, Store: t.identifier}
	entry := d.log.WithFields(logrus.Fields{"tenant": t.name, "store": t.identifier})

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("%w: %v", ErrTenantPanic, r)
		}
		outcome.Duration = time.Since(start)
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
			entry.Errorf("租户同步失败: %v", outcome.Err)
		}
	}()

	ctx := parent
	if d.opts.TenantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, d.opts.TenantTimeout)
		defer cancel()
	}

	if d.cache != nil {
		if err := d.cache.InvalidateCache(ctx, t.identifier); err != nil {
			entry.Warnf("清除租户缓存失败: %v", err)
		}
	}

	h := t.borrowed
	if h == nil {
		opened, err := d.opener.Open(ctx, t.identifier)
		if err != nil {
			outcome.Err = fmt.Errorf("打开租户库失败: %w", err)
			return outcome
		}
		h = opened
	}
	defer func() {
		if err := h.Close(); err != nil {
			entry.Warnf("关闭租户库连接失败: %v", err)
		}
	}()

	report, err := d.sync.Sync(ctx, h, d.discoverer)
	outcome.Report = report
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w (%v)", context.DeadlineExceeded, err)
		}
		outcome.Err = err
		return outcome
	}
	entry.Debug("租户同步成功")
	return outcome
}

func sortOutcomes(outcomes []TenantOutcome) {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Tenant < outcomes[j].Tenant })
}

package schema

import (
	"context"
	"fmt"
	"time"

	"sitehub/internal/contenttype"
	"sitehub/internal/models"
	"sitehub/internal/store"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Outcome 单元执行结果
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"         // 本次实际执行
	OutcomeSkipped        Outcome = "skipped"         // 账本中已有记录
	OutcomeAlreadyPresent Outcome = "already_present" // 所有步骤都返回“已存在”类错误
)

// UnitResult 单个迁移单元的执行结果
type UnitResult struct {
	Unit     string        `json:"unit"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// Report 单个租户库的同步报告
type Report struct {
	Store     string                `json:"store"`
	Units     []UnitResult          `json:"units"`
	Discovery *contenttype.Result   `json:"discovery,omitempty"`
	Rejected  []RejectedContentType `json:"rejected_content_types,omitempty"` // 未建支撑表的内容类型
}

// Applied 实际执行的单元数
func (r *Report) Applied() int {
	return r.count(OutcomeApplied)
}

// Skipped 跳过的单元数（含账本命中与已存在）
func (r *Report) Skipped() int {
	return r.count(OutcomeSkipped) + r.count(OutcomeAlreadyPresent)
}

func (r *Report) count(outcome Outcome) int {
	n := 0
	for _, u := range r.Units {
		if u.Outcome == outcome {
			n++
		}
	}
	return n
}

// Discoverer 在同步内容类型支撑表之前完成内容类型发现并提交
type Discoverer interface {
	DiscoverStore(ctx context.Context, h store.Handle) (*contenttype.Result, error)
}

// Synchronizer 把迁移目录应用到单个租户库
type Synchronizer struct {
	catalog *Catalog
	log     *logrus.Logger
}

// NewSynchronizer 创建同步器
func NewSynchronizer(catalog *Catalog, log *logrus.Logger) *Synchronizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Synchronizer{catalog: catalog, log: log}
}

// Catalog 当前迁移目录
func (s *Synchronizer) Catalog() *Catalog {
	return s.catalog
}

// ApplyUnits 按顺序应用给定单元；遇到第一个非“已存在”类错误即停止本库
func (s *Synchronizer) ApplyUnits(ctx context.Context, h store.Handle, units []Unit) (*Report, error) {
	report := &Report{Store: h.Identifier()}
	return report, s.applyInto(ctx, h, units, report)
}

// ApplyContentTypes 为给定内容类型创建支撑表
func (s *Synchronizer) ApplyContentTypes(ctx context.Context, h store.Handle, types []models.ContentType) (*Report, error) {
	report := &Report{Store: h.Identifier()}
	units := s.contentTypeUnits(h, types, report)
	return report, s.applyInto(ctx, h, units, report)
}

// ApplyRegisteredContentTypes 读取库中已登记的内容类型并创建支撑表
func (s *Synchronizer) ApplyRegisteredContentTypes(ctx context.Context, h store.Handle) (*Report, error) {
	types, err := loadContentTypes(h.DB().WithContext(ctx))
	if err != nil {
		return &Report{Store: h.Identifier()}, &MigrationError{Store: h.Identifier(), Unit: contentTypeUnitPrefix + "*", Err: err}
	}
	return s.ApplyContentTypes(ctx, h, types)
}

// Sync 完整同步：静态单元，然后内容类型发现，最后内容类型支撑表
func (s *Synchronizer) Sync(ctx context.Context, h store.Handle, discoverer Discoverer) (*Report, error) {
	report := &Report{Store: h.Identifier()}
	if err := s.applyInto(ctx, h, s.catalog.Static(), report); err != nil {
		return report, err
	}

	if discoverer != nil {
		result, err := discoverer.DiscoverStore(ctx, h)
		if err != nil {
			return report, fmt.Errorf("租户库 %s 内容类型发现失败: %w", h.Identifier(), err)
		}
		report.Discovery = result
	}

	types, err := loadContentTypes(h.DB().WithContext(ctx))
	if err != nil {
		return report, &MigrationError{Store: h.Identifier(), Unit: contentTypeUnitPrefix + "*", Err: err}
	}
	units := s.contentTypeUnits(h, types, report)
	if err := s.applyInto(ctx, h, units, report); err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"store":   h.Identifier(),
		"applied": report.Applied(),
		"skipped": report.Skipped(),
	}).Info("租户库同步完成")
	return report, nil
}

// contentTypeUnits 生成内容类型单元，并排除记录表会落到目录已有表上的类型
func (s *Synchronizer) contentTypeUnits(h store.Handle, types []models.ContentType, report *Report) []Unit {
	owned := s.catalog.Tables()
	candidates := make([]models.ContentType, 0, len(types))
	var rejected []RejectedContentType
	for _, ct := range types {
		if !ct.IsSystem && owned[ct.EntryTable()] {
			rejected = append(rejected, RejectedContentType{
				Name:   ct.Name,
				Reason: fmt.Sprintf("记录表 %s 已由迁移目录管理", ct.EntryTable()),
			})
			continue
		}
		candidates = append(candidates, ct)
	}

	units, invalid := ContentTypeUnits(candidates)
	rejected = append(rejected, invalid...)
	for _, r := range rejected {
		s.log.WithFields(logrus.Fields{
			"store":        h.Identifier(),
			"content_type": r.Name,
		}).Warnf("内容类型无法建表，已跳过: %s", r.Reason)
	}
	report.Rejected = append(report.Rejected, rejected...)
	return units
}

func (s *Synchronizer) applyInto(ctx context.Context, h store.Handle, units []Unit, report *Report) error {
	db := h.DB().WithContext(ctx)
	l := newLedger(db, h)
	if err := l.ensure(); err != nil {
		return &MigrationError{Store: h.Identifier(), Unit: LedgerTable, Err: err}
	}

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return &MigrationError{Store: h.Identifier(), Unit: unit.Name, Err: err}
		}
		result, err := s.applyUnit(db, h, l, unit)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"store": h.Identifier(),
				"unit":  unit.Name,
			}).Errorf("迁移单元执行失败: %v", err)
			return &MigrationError{Store: h.Identifier(), Unit: unit.Name, Err: err}
		}
		report.Units = append(report.Units, result)
	}
	return nil
}

func (s *Synchronizer) applyUnit(db *gorm.DB, h store.Handle, l *ledger, unit Unit) (UnitResult, error) {
	start := time.Now()

	key := unit.LedgerKey()
	done, err := l.applied(key)
	if err != nil {
		return UnitResult{}, err
	}
	if done {
		return UnitResult{Unit: unit.Name, Outcome: OutcomeSkipped, Duration: time.Since(start)}, nil
	}

	benign := 0
	for _, step := range unit.Steps {
		if err := step.Run(db); err != nil {
			if h.IsBenignAlreadyAppliedError(err) && !(step.rejectDuplicateRows && store.IsUniqueViolation(err)) {
				benign++
				s.log.WithFields(logrus.Fields{
					"store": h.Identifier(),
					"unit":  unit.Name,
					"step":  step.Label,
				}).Debugf("已存在，跳过: %v", err)
				continue
			}
			return UnitResult{}, fmt.Errorf("%s: %w", step.Label, err)
		}
	}

	if err := l.record(key); err != nil {
		return UnitResult{}, err
	}

	outcome := OutcomeApplied
	if len(unit.Steps) > 0 && benign == len(unit.Steps) {
		outcome = OutcomeAlreadyPresent
	}
	return UnitResult{Unit: unit.Name, Outcome: outcome, Duration: time.Since(start)}, nil
}

func loadContentTypes(db *gorm.DB) ([]models.ContentType, error) {
	var types []models.ContentType
	if err := db.Where("is_system = ?", false).Order("menu_order, id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("读取内容类型失败: %w", err)
	}
	return types, nil
}

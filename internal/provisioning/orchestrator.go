// Package provisioning 负责新租户的完整开通流程，任一步骤失败都会回滚本次创建的资源。
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitehub/internal/contenttype"
	"sitehub/internal/models"
	"sitehub/internal/registry"
	"sitehub/internal/schema"
	"sitehub/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 开通步骤
const (
	StepValidate             = "validate"
	StepReserve              = "reserve"
	StepCreateStore          = "create_store"
	StepCanonicalSchema      = "apply_canonical_schema"
	StepExtensionTables      = "apply_extension_tables"
	StepSeedBaseline         = "seed_baseline"
	StepRegisterContentTypes = "register_content_types"
	StepNamespace            = "provision_namespace"
	StepFinalize             = "finalize"
)

// 回滚使用独立的超时，调用方取消后仍需完成清理
const rollbackTimeout = 30 * time.Second

// Registry 开通流程用到的注册表操作
type Registry interface {
	Get(ctx context.Context, name string) (*models.Tenant, error)
	Reserve(ctx context.Context, name, storeIdentifier string) (*models.Tenant, error)
	MarkActive(ctx context.Context, name string) error
	MarkFailed(ctx context.Context, name, step, detail string) error
	SaveRecord(ctx context.Context, record *models.ProvisioningRecord) error
}

// SchemaApplier 迁移同步器
type SchemaApplier interface {
	Catalog() *schema.Catalog
	ApplyUnits(ctx context.Context, h store.Handle, units []schema.Unit) (*schema.Report, error)
	ApplyRegisteredContentTypes(ctx context.Context, h store.Handle) (*schema.Report, error)
}

// Discovery 内容类型发现
type Discovery interface {
	SeedBuiltins(ctx context.Context, h store.Handle) ([]string, error)
	DiscoverStore(ctx context.Context, h store.Handle) (*contenttype.Result, error)
	InvalidateCache(ctx context.Context, tenant string) error
}

// Options 开通配置
type Options struct {
	StorePrefix       string
	DefaultCredential Credential
}

// Outcome 开通成功的结果
type Outcome struct {
	RunID           string              `json:"run_id"`
	Tenant          *models.Tenant      `json:"tenant"`
	StoreIdentifier string              `json:"store_identifier"`
	Namespace       string              `json:"namespace"`
	UnitsApplied    int                 `json:"units_applied"`
	Discovery       *contenttype.Result `json:"discovery"`
}

// Orchestrator 开通编排器
type Orchestrator struct {
	opts       Options
	registry   Registry
	backend    store.Backend
	schema     SchemaApplier
	discovery  Discovery
	seeder     Seeder
	namespaces Namespaces
	validate   *validator.Validate
	log        *logrus.Logger
}

// NewOrchestrator 创建开通编排器
func NewOrchestrator(opts Options, reg Registry, backend store.Backend, applier SchemaApplier,
	discovery Discovery, seeder Seeder, namespaces Namespaces, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		opts:       opts,
		registry:   reg,
		backend:    backend,
		schema:     applier,
		discovery:  discovery,
		seeder:     seeder,
		namespaces: namespaces,
		validate:   validator.New(),
		log:        log,
	}
}

// run 单次开通的运行状态
type run struct {
	name         string
	identifier   string
	credential   Credential
	record       *models.ProvisioningRecord
	handle       store.Handle
	storeCreated bool
	namespace    string
	outcome      *Outcome
	log          *logrus.Entry
}

type step struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

// Provision 开通租户。cred 为 nil 时使用默认管理员凭证。
// 返回的错误为 *ValidationError、*DuplicateTenantError 或 *ProvisioningFailedError。
func (o *Orchestrator) Provision(ctx context.Context, name string, cred *Credential) (*Outcome, error) {
	r := &run{
		name: name,
		record: &models.ProvisioningRecord{
			RunID:      uuid.New().String(),
			TenantName: name,
			Step:       StepValidate,
			Status:     models.ProvisioningStatusRunning,
			StartedAt:  time.Now(),
		},
	}
	r.log = o.log.WithFields(logrus.Fields{"tenant": name, "run_id": r.record.RunID})
	r.outcome = &Outcome{RunID: r.record.RunID}

	if err := o.validateInput(r, cred); err != nil {
		o.reject(ctx, r, err)
		return nil, err
	}

	r.record.Step = StepReserve
	o.saveRecord(ctx, r)
	if err := o.reserve(ctx, r); err != nil {
		if IsDuplicate(err) {
			o.reject(ctx, r, err)
			return nil, err
		}
		o.finishRecord(ctx, r, models.ProvisioningStatusRejected, err, nil)
		return nil, &ProvisioningFailedError{Tenant: name, Step: StepReserve, Err: err}
	}

	steps := []step{
		{StepCreateStore, o.createStore},
		{StepCanonicalSchema, o.applyCanonical},
		{StepExtensionTables, o.applyExtensions},
		{StepSeedBaseline, o.seedBaseline},
		{StepRegisterContentTypes, o.registerContentTypes},
		{StepNamespace, o.provisionNamespace},
		{StepFinalize, o.finalize},
	}
	for _, s := range steps {
		r.record.Step = s.name
		err := ctx.Err()
		if err == nil {
			r.log.WithField("step", s.name).Info("执行开通步骤")
			err = s.fn(ctx, r)
		}
		if err != nil {
			rollbackErr := o.rollback(r, s.name, err)
			o.finishRecord(ctx, r, models.ProvisioningStatusRolledBack, err, rollbackErr)
			return nil, &ProvisioningFailedError{Tenant: name, Step: s.name, Err: err, RollbackErr: rollbackErr}
		}
	}

	o.closeHandle(r)
	o.finishRecord(ctx, r, models.ProvisioningStatusSucceeded, nil, nil)
	r.log.WithField("store", r.identifier).Info("租户开通完成")
	return r.outcome, nil
}

func (o *Orchestrator) validateInput(r *run, cred *Credential) error {
	if err := ValidateName(r.name); err != nil {
		return err
	}
	r.identifier = store.Identifier(o.opts.StorePrefix, r.name)
	if err := store.ValidateIdentifier(r.identifier); err != nil {
		return &ValidationError{Field: "name", Reason: "加上前缀后物理库标识过长"}
	}

	credential := o.opts.DefaultCredential
	if cred != nil {
		credential = *cred
	}
	if err := validateCredential(o.validate, credential); err != nil {
		return err
	}
	r.credential = credential
	r.outcome.StoreIdentifier = r.identifier
	return nil
}

// reserve 物理库已存在或注册表中已有同名租户都视为重名；本步骤不创建可回滚的资源
func (o *Orchestrator) reserve(ctx context.Context, r *run) error {
	exists, err := o.backend.Exists(ctx, r.identifier)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateTenantError{Name: r.name, StoreIdentifier: r.identifier}
	}

	tenant, err := o.registry.Reserve(ctx, r.name, r.identifier)
	if errors.Is(err, registry.ErrDuplicate) {
		return &DuplicateTenantError{Name: r.name, StoreIdentifier: r.identifier}
	}
	if err != nil {
		return err
	}
	r.outcome.Tenant = tenant
	return nil
}

func (o *Orchestrator) createStore(ctx context.Context, r *run) error {
	if err := o.backend.Create(ctx, r.identifier); err != nil {
		return &StoreCreationError{StoreIdentifier: r.identifier, Err: err}
	}
	r.storeCreated = true

	h, err := o.backend.Open(ctx, r.identifier)
	if err != nil {
		return &StoreCreationError{StoreIdentifier: r.identifier, Err: err}
	}
	r.handle = h
	return nil
}

func (o *Orchestrator) applyCanonical(ctx context.Context, r *run) error {
	report, err := o.schema.ApplyUnits(ctx, r.handle, o.schema.Catalog().Canonical())
	if report != nil {
		r.outcome.UnitsApplied += report.Applied()
	}
	return err
}

func (o *Orchestrator) applyExtensions(ctx context.Context, r *run) error {
	catalog := o.schema.Catalog()
	units := append(append([]schema.Unit{}, catalog.Extensions()...), catalog.Alters()...)
	report, err := o.schema.ApplyUnits(ctx, r.handle, units)
	if report != nil {
		r.outcome.UnitsApplied += report.Applied()
	}
	return err
}

func (o *Orchestrator) seedBaseline(ctx context.Context, r *run) error {
	if err := o.seeder.Seed(ctx, r.handle, r.credential); err != nil {
		return err
	}
	if _, err := o.discovery.SeedBuiltins(ctx, r.handle); err != nil {
		return &SeedError{What: "内置内容类型", Err: err}
	}
	return nil
}

// registerContentTypes 发现结果提交之后才创建内容类型支撑表
func (o *Orchestrator) registerContentTypes(ctx context.Context, r *run) error {
	result, err := o.discovery.DiscoverStore(ctx, r.handle)
	if err != nil {
		return err
	}
	r.outcome.Discovery = result

	report, err := o.schema.ApplyRegisteredContentTypes(ctx, r.handle)
	if report != nil {
		r.outcome.UnitsApplied += report.Applied()
	}
	return err
}

func (o *Orchestrator) provisionNamespace(_ context.Context, r *run) error {
	dir, err := o.namespaces.Create(r.name)
	if err != nil {
		return err
	}
	r.namespace = dir
	r.outcome.Namespace = dir
	return nil
}

// finalize 更新可能已提交却返回错误，此时以注册表中的状态为准，已是 active 的租户不能回滚
func (o *Orchestrator) finalize(ctx context.Context, r *run) error {
	if err := o.registry.MarkActive(ctx, r.name); err != nil {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		tenant, getErr := o.registry.Get(readCtx, r.name)
		cancel()
		if getErr != nil || tenant.Status != models.TenantStatusActive {
			return fmt.Errorf("标记租户为 active 失败: %w", err)
		}
		r.log.Warnf("标记 active 返回错误但状态已提交: %v", err)
	}
	if r.outcome.Tenant != nil {
		now := time.Now()
		r.outcome.Tenant.Status = models.TenantStatusActive
		r.outcome.Tenant.ActivatedAt = &now
	}
	return nil
}

// rollback 逆序清理本次运行创建的资源；清理失败只记录，不替代原始错误
func (o *Orchestrator) rollback(r *run, failedStep string, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	entry := r.log.WithField("step", failedStep)
	entry.Errorf("开通步骤失败，开始回滚: %v", cause)

	var errs []error
	if r.namespace != "" {
		if err := o.namespaces.Remove(r.name); err != nil {
			errs = append(errs, err)
		}
	}
	o.closeHandle(r)
	if r.storeCreated {
		if err := o.backend.Drop(ctx, r.identifier); err != nil {
			errs = append(errs, fmt.Errorf("删除物理库 %s 失败: %w", r.identifier, err))
		}
	}
	if err := o.discovery.InvalidateCache(ctx, r.identifier); err != nil {
		entry.Warnf("清除租户缓存失败: %v", err)
	}
	if err := o.registry.MarkFailed(ctx, r.name, failedStep, cause.Error()); err != nil {
		errs = append(errs, fmt.Errorf("标记租户失败状态失败: %w", err))
	}

	if len(errs) == 0 {
		entry.Info("回滚完成")
		return nil
	}
	rollbackErr := &RollbackError{Tenant: r.name, Errs: errs}
	entry.Error(rollbackErr.Error())
	return rollbackErr
}

func (o *Orchestrator) closeHandle(r *run) {
	if r.handle == nil {
		return
	}
	if err := r.handle.Close(); err != nil {
		r.log.Warnf("关闭租户库连接失败: %v", err)
	}
	r.handle = nil
}

func (o *Orchestrator) reject(ctx context.Context, r *run, err error) {
	r.log.Warnf("开通请求被拒绝: %v", err)
	o.finishRecord(ctx, r, models.ProvisioningStatusRejected, err, nil)
}

func (o *Orchestrator) finishRecord(ctx context.Context, r *run, status string, err, rollbackErr error) {
	now := time.Now()
	r.record.Status = status
	r.record.FinishedAt = &now
	if err != nil {
		r.record.Error = err.Error()
	}
	if rollbackErr != nil {
		r.record.RollbackError = rollbackErr.Error()
	}
	o.saveRecord(ctx, r)
}

// saveRecord 流水写入失败不影响开通结果
func (o *Orchestrator) saveRecord(ctx context.Context, r *run) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := o.registry.SaveRecord(ctx, r.record); err != nil {
		r.log.Warnf("保存开通流水失败: %v", err)
	}
}

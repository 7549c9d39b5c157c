package provisioning

import (
	"context"
	"errors"
	"sync"

	"sitehub/internal/contenttype"
	"sitehub/internal/models"
	"sitehub/internal/registry"
	"sitehub/internal/schema"
	"sitehub/internal/store"

	"gorm.io/gorm"
)

var errInjected = errors.New("injected failure")

type fakeHandle struct {
	identifier string
	closed     bool
}

func (h *fakeHandle) Identifier() string                     { return h.identifier }
func (h *fakeHandle) DB() *gorm.DB                           { return nil }
func (h *fakeHandle) Dialect() string                        { return store.DialectPostgres }
func (h *fakeHandle) IsBenignAlreadyAppliedError(error) bool { return false }
func (h *fakeHandle) Close() error                           { h.closed = true; return nil }

type fakeBackend struct {
	mu       sync.Mutex
	stores   map[string]bool
	created  int
	handles  []*fakeHandle
	failOn   string
	dropFail bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{stores: map[string]bool{}}
}

func (b *fakeBackend) Dialect() string                            { return store.DialectPostgres }
func (b *fakeBackend) IsBenignAlreadyAppliedError(err error) bool { return false }

func (b *fakeBackend) Exists(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == "exists" {
		return false, errInjected
	}
	return b.stores[id], nil
}

func (b *fakeBackend) Create(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == StepCreateStore {
		return errInjected
	}
	if b.stores[id] {
		return errors.New("database already exists")
	}
	b.stores[id] = true
	b.created++
	return nil
}

func (b *fakeBackend) Drop(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropFail {
		return errors.New("drop refused")
	}
	delete(b.stores, id)
	return nil
}

func (b *fakeBackend) Open(_ context.Context, id string) (store.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == "open" {
		return nil, errInjected
	}
	h := &fakeHandle{identifier: id}
	b.handles = append(b.handles, h)
	return h, nil
}

func (b *fakeBackend) allHandlesClosed() bool {
	for _, h := range b.handles {
		if !h.closed {
			return false
		}
	}
	return true
}

type fakeRegistry struct {
	tenants         map[string]*models.Tenant
	records         map[string]models.ProvisioningRecord
	failMarkActive  bool
	activeThenFail  bool // 状态已提交但返回错误
	failMarkFailed  bool
	failSaveRecords bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tenants: map[string]*models.Tenant{}, records: map[string]models.ProvisioningRecord{}}
}

func (r *fakeRegistry) Reserve(_ context.Context, name, id string) (*models.Tenant, error) {
	if t, ok := r.tenants[name]; ok {
		if t.Status != models.TenantStatusFailed {
			return nil, registry.ErrDuplicate
		}
		t.Status = models.TenantStatusPending
		copied := *t
		return &copied, nil
	}
	t := &models.Tenant{Name: name, StoreIdentifier: id, Status: models.TenantStatusPending}
	t.ID = uint(len(r.tenants) + 1)
	r.tenants[name] = t
	copied := *t
	return &copied, nil
}

func (r *fakeRegistry) Get(_ context.Context, name string) (*models.Tenant, error) {
	t, ok := r.tenants[name]
	if !ok {
		return nil, registry.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeRegistry) MarkActive(_ context.Context, name string) error {
	if r.failMarkActive {
		return errInjected
	}
	t, ok := r.tenants[name]
	if !ok || t.Status != models.TenantStatusPending {
		return registry.ErrNotFound
	}
	t.Status = models.TenantStatusActive
	if r.activeThenFail {
		return context.DeadlineExceeded
	}
	return nil
}

func (r *fakeRegistry) MarkFailed(_ context.Context, name, step, detail string) error {
	if r.failMarkFailed {
		return errInjected
	}
	t, ok := r.tenants[name]
	if !ok {
		return registry.ErrNotFound
	}
	t.Status = models.TenantStatusFailed
	t.FailedStep = step
	t.FailureDetail = detail
	return nil
}

func (r *fakeRegistry) SaveRecord(_ context.Context, record *models.ProvisioningRecord) error {
	if r.failSaveRecords {
		return errInjected
	}
	r.records[record.RunID] = *record
	return nil
}

func (r *fakeRegistry) lastRecord() models.ProvisioningRecord {
	var last models.ProvisioningRecord
	for _, rec := range r.records {
		if last.StartedAt.IsZero() || rec.StartedAt.After(last.StartedAt) {
			last = rec
		}
	}
	return last
}

type fakeSchema struct {
	catalog *schema.Catalog
	failOn  string
	calls   []string
}

func newFakeSchema() *fakeSchema {
	noop := func(name string) schema.Unit { return schema.NewUnit(name, schema.SQL("SELECT 1")) }
	return &fakeSchema{catalog: schema.NewCatalog(
		[]schema.Unit{noop("canonical:pages")},
		[]schema.Unit{noop("extension:import_jobs")},
		[]schema.Unit{noop("alter:pages_add_sort_order")},
	)}
}

func (s *fakeSchema) Catalog() *schema.Catalog { return s.catalog }

func (s *fakeSchema) ApplyUnits(_ context.Context, h store.Handle, units []schema.Unit) (*schema.Report, error) {
	report := &schema.Report{Store: h.Identifier()}
	for _, u := range units {
		s.calls = append(s.calls, u.Name)
		if s.failOn == u.Name {
			return report, &schema.MigrationError{Store: h.Identifier(), Unit: u.Name, Err: errInjected}
		}
		report.Units = append(report.Units, schema.UnitResult{Unit: u.Name, Outcome: schema.OutcomeApplied})
	}
	return report, nil
}

func (s *fakeSchema) ApplyRegisteredContentTypes(_ context.Context, h store.Handle) (*schema.Report, error) {
	s.calls = append(s.calls, "content_types")
	if s.failOn == "content_types" {
		return &schema.Report{Store: h.Identifier()}, &schema.MigrationError{Store: h.Identifier(), Unit: "content_type:*", Err: errInjected}
	}
	return &schema.Report{Store: h.Identifier()}, nil
}

type fakeDiscovery struct {
	failSeed     bool
	failDiscover bool
	invalidated  []string
	order        *[]string
}

func (d *fakeDiscovery) SeedBuiltins(context.Context, store.Handle) ([]string, error) {
	if d.failSeed {
		return nil, errInjected
	}
	return []string{"pages", "blocks"}, nil
}

func (d *fakeDiscovery) DiscoverStore(context.Context, store.Handle) (*contenttype.Result, error) {
	if d.order != nil {
		*d.order = append(*d.order, "discover")
	}
	if d.failDiscover {
		return nil, errInjected
	}
	return &contenttype.Result{Created: []string{"blog"}}, nil
}

func (d *fakeDiscovery) InvalidateCache(_ context.Context, tenant string) error {
	d.invalidated = append(d.invalidated, tenant)
	return nil
}

type fakeSeeder struct {
	fail  bool
	seeds []Credential
}

func (s *fakeSeeder) Seed(_ context.Context, _ store.Handle, cred Credential) error {
	if s.fail {
		return &SeedError{What: "管理员", Err: errInjected}
	}
	s.seeds = append(s.seeds, cred)
	return nil
}

type failingNamespaces struct {
	*LocalNamespaces
}

func (failingNamespaces) Create(string) (string, error) { return "", errInjected }

type cancellingSeeder struct {
	cancel context.CancelFunc
}

func (s cancellingSeeder) Seed(context.Context, store.Handle, Credential) error {
	s.cancel()
	return nil
}

package provisioning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sitehub/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	orch       *Orchestrator
	backend    *fakeBackend
	registry   *fakeRegistry
	schema     *fakeSchema
	discovery  *fakeDiscovery
	seeder     *fakeSeeder
	namespaces *LocalNamespaces
	uploads    string
}

func newHarness(t *testing.T) *harness {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	h := &harness{
		backend:   newFakeBackend(),
		registry:  newFakeRegistry(),
		schema:    newFakeSchema(),
		discovery: &fakeDiscovery{},
		seeder:    &fakeSeeder{},
		uploads:   filepath.Join(t.TempDir(), "uploads"),
	}
	h.discovery.order = &h.schema.calls
	h.namespaces = NewLocalNamespaces(h.uploads)
	h.orch = NewOrchestrator(Options{
		StorePrefix:       "site_",
		DefaultCredential: Credential{Email: "admin@example.com", Password: "Admin@123"},
	}, h.registry, h.backend, h.schema, h.discovery, h.seeder, h.namespaces, log)
	return h
}

func (h *harness) withNamespaces(n Namespaces) {
	h.orch.namespaces = n
}

func TestProvision_Success(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.NoError(t, err)

	assert.Equal(t, "site_shop1", outcome.StoreIdentifier)
	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, models.TenantStatusActive, outcome.Tenant.Status)
	assert.Equal(t, []string{"blog"}, outcome.Discovery.Created)
	assert.Equal(t, 3, outcome.UnitsApplied)
	assert.True(t, h.backend.stores["site_shop1"])
	assert.Equal(t, models.TenantStatusActive, h.registry.tenants["shop1"].Status)
	assert.True(t, h.backend.allHandlesClosed())

	info, err := os.Stat(filepath.Join(h.uploads, "shop1", "media"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// 发现结果提交之后才创建内容类型支撑表
	assert.Equal(t, []string{
		"canonical:pages", "extension:import_jobs", "alter:pages_add_sort_order", "discover", "content_types",
	}, h.schema.calls)

	rec := h.registry.lastRecord()
	assert.Equal(t, models.ProvisioningStatusSucceeded, rec.Status)
	assert.Equal(t, StepFinalize, rec.Step)
	assert.NotNil(t, rec.FinishedAt)
}

func TestProvision_DefaultCredential(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.NoError(t, err)
	require.Len(t, h.seeder.seeds, 1)
	assert.Equal(t, "admin@example.com", h.seeder.seeds[0].Email)
	assert.Equal(t, "Admin@123", h.seeder.seeds[0].Password)
}

func TestProvision_ExplicitCredential(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Provision(context.Background(), "shop1", &Credential{Email: "owner@shop1.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "owner@shop1.test", h.seeder.seeds[0].Email)
}

func TestProvision_InvalidNamesCreateNothing(t *testing.T) {
	for _, name := range []string{"", "Shop", "-shop", "shop-", "shop_1", "shop.1", "shop 1", "商店", string(make([]byte, 64))} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.orch.Provision(context.Background(), name, nil)
			require.Error(t, err)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Zero(t, h.backend.created)
			assert.Empty(t, h.registry.tenants)
			_, statErr := os.Stat(h.uploads)
			assert.True(t, os.IsNotExist(statErr))
			assert.Equal(t, models.ProvisioningStatusRejected, h.registry.lastRecord().Status)
		})
	}
}

func TestProvision_InvalidCredential(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Provision(context.Background(), "shop1", &Credential{Email: "not-an-email", Password: "longenough"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "admin_email", vErr.Field)

	_, err = h.orch.Provision(context.Background(), "shop1", &Credential{Email: "a@b.test", Password: "short"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "admin_password", vErr.Field)
	assert.Zero(t, h.backend.created)
}

func TestProvision_SingleCharacterName(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.orch.Provision(context.Background(), "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "site_a", outcome.StoreIdentifier)
}

func TestProvision_TwiceIsDuplicate(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.NoError(t, err)

	_, err = h.orch.Provision(context.Background(), "shop1", nil)
	require.Error(t, err)
	var dupErr *DuplicateTenantError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "site_shop1", dupErr.StoreIdentifier)
	assert.Equal(t, 1, h.backend.created)
	assert.True(t, h.backend.stores["site_shop1"], "重名失败不能删除已有租户库")
}

func TestProvision_OrphanStoreIsDuplicate(t *testing.T) {
	h := newHarness(t)
	h.backend.stores["site_shop1"] = true

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	assert.True(t, IsDuplicate(err))
	assert.Empty(t, h.registry.tenants)
	assert.True(t, h.backend.stores["site_shop1"])
}

func TestProvision_FailureAtEachStepRollsBack(t *testing.T) {
	cases := []struct {
		step   string
		inject func(h *harness)
	}{
		{StepCreateStore, func(h *harness) { h.backend.failOn = StepCreateStore }},
		{StepCreateStore, func(h *harness) { h.backend.failOn = "open" }},
		{StepCanonicalSchema, func(h *harness) { h.schema.failOn = "canonical:pages" }},
		{StepExtensionTables, func(h *harness) { h.schema.failOn = "alter:pages_add_sort_order" }},
		{StepSeedBaseline, func(h *harness) { h.seeder.fail = true }},
		{StepSeedBaseline, func(h *harness) { h.discovery.failSeed = true }},
		{StepRegisterContentTypes, func(h *harness) { h.discovery.failDiscover = true }},
		{StepRegisterContentTypes, func(h *harness) { h.schema.failOn = "content_types" }},
		{StepNamespace, func(h *harness) { h.withNamespaces(failingNamespaces{h.namespaces}) }},
		{StepFinalize, func(h *harness) { h.registry.failMarkActive = true }},
	}
	for _, tc := range cases {
		t.Run(tc.step, func(t *testing.T) {
			h := newHarness(t)
			tc.inject(h)

			_, err := h.orch.Provision(context.Background(), "shop1", nil)
			require.Error(t, err)

			var failed *ProvisioningFailedError
			require.True(t, errors.As(err, &failed))
			assert.Equal(t, tc.step, failed.Step)
			assert.True(t, failed.RolledBack())
			assert.ErrorIs(t, err, errInjected)

			assert.False(t, h.backend.stores["site_shop1"], "物理库应已删除")
			assert.True(t, h.backend.allHandlesClosed())
			tenant := h.registry.tenants["shop1"]
			require.NotNil(t, tenant)
			assert.NotEqual(t, models.TenantStatusActive, tenant.Status)
			assert.Equal(t, models.TenantStatusFailed, tenant.Status)
			assert.Equal(t, tc.step, tenant.FailedStep)
			_, statErr := os.Stat(filepath.Join(h.uploads, "shop1"))
			assert.True(t, os.IsNotExist(statErr), "租户目录应已删除")
			assert.Contains(t, h.discovery.invalidated, "site_shop1")

			rec := h.registry.lastRecord()
			assert.Equal(t, models.ProvisioningStatusRolledBack, rec.Status)
			assert.Equal(t, tc.step, rec.Step)
		})
	}
}

func TestProvision_FinalizeCommittedDespiteError(t *testing.T) {
	h := newHarness(t)
	h.registry.activeThenFail = true

	outcome, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusActive, outcome.Tenant.Status)

	assert.True(t, h.backend.stores["site_shop1"], "active 租户的物理库必须保留")
	assert.Equal(t, models.TenantStatusActive, h.registry.tenants["shop1"].Status)
	_, statErr := os.Stat(filepath.Join(h.uploads, "shop1"))
	assert.NoError(t, statErr)
	assert.Equal(t, models.ProvisioningStatusSucceeded, h.registry.lastRecord().Status)
}

func TestProvision_RollbackFailureIsDiagnosticOnly(t *testing.T) {
	h := newHarness(t)
	h.seeder.fail = true
	h.backend.dropFail = true

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	var failed *ProvisioningFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, StepSeedBaseline, failed.Step)
	assert.False(t, failed.RolledBack())

	var seedErr *SeedError
	assert.True(t, errors.As(err, &seedErr), "调用方看到的是原始错误")
	var rbErr *RollbackError
	require.True(t, errors.As(failed.RollbackErr, &rbErr))
	assert.Contains(t, err.Error(), "drop refused")
	assert.NotEmpty(t, h.registry.lastRecord().RollbackError)
}

func TestProvision_RetryAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.seeder.fail = true

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.Error(t, err)

	h.seeder.fail = false
	outcome, err := h.orch.Provision(context.Background(), "shop1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusActive, outcome.Tenant.Status)
	assert.Equal(t, 2, h.backend.created)
}

func TestProvision_PreexistingNamespaceIsNotTakenOver(t *testing.T) {
	h := newHarness(t)
	foreign := filepath.Join(h.uploads, "shop1")
	require.NoError(t, os.MkdirAll(foreign, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(foreign, "keep.txt"), []byte("x"), 0644))

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	var failed *ProvisioningFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, StepNamespace, failed.Step)
	assert.ErrorIs(t, err, ErrNamespaceExists)

	_, statErr := os.Stat(filepath.Join(foreign, "keep.txt"))
	assert.NoError(t, statErr, "不能删除不属于本次运行的目录")
	assert.False(t, h.backend.stores["site_shop1"])
}

func TestProvision_CancelledContextRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.orch.seeder = cancellingSeeder{cancel: cancel}

	_, err := h.orch.Provision(ctx, "shop1", nil)
	var failed *ProvisioningFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, StepRegisterContentTypes, failed.Step)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.backend.stores["site_shop1"])
}

func TestProvision_RecordFailureDoesNotFailProvisioning(t *testing.T) {
	h := newHarness(t)
	h.registry.failSaveRecords = true

	_, err := h.orch.Provision(context.Background(), "shop1", nil)
	assert.NoError(t, err)
}

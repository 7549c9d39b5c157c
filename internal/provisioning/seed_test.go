package provisioning

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"sitehub/internal/models"
	"sitehub/internal/store/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// captureArg 记录传给驱动的参数
type captureArg struct {
	value string
}

func (c *captureArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		c.value = s
	}
	return ok
}

func TestBaselineRecords_DefaultCredential(t *testing.T) {
	setting, admin, err := BaselineRecords(Credential{Email: "admin@example.com", Password: "Admin@123"}, "default")
	require.NoError(t, err)

	assert.Equal(t, models.SettingActiveTheme, setting.Name)
	assert.Equal(t, "default", setting.Value)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.Equal(t, models.SiteRoleAdmin, admin.Role)
	assert.NotEqual(t, "Admin@123", admin.PasswordHash)
	assert.True(t, admin.CheckPassword("Admin@123"))
	assert.False(t, admin.CheckPassword("admin@123"))
}

func TestBaselineSeeder_SeedsSettingAndAdmin(t *testing.T) {
	h, mock := storetest.NewMockHandle(t, "site_shop1")
	hash := &captureArg{}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "settings" WHERE name = $1`)).
		WithArgs(models.SettingActiveTheme).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "settings"`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.SettingActiveTheme, "default").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE role = $1`)).
		WithArgs(models.SiteRoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "admin@example.com", DefaultAdminName, hash,
			models.SiteRoleAdmin, models.SiteUserStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	seeder := NewBaselineSeeder("default")
	err := seeder.Seed(context.Background(), h, Credential{Email: "admin@example.com", Password: "Admin@123"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NotEmpty(t, hash.value)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash.value), []byte("Admin@123")))
}

func TestBaselineSeeder_KeepsExistingRows(t *testing.T) {
	h, mock := storetest.NewMockHandle(t, "site_shop1")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "settings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	err := NewBaselineSeeder("").Seed(context.Background(), h, Credential{Email: "admin@example.com", Password: "Admin@123"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBaselineSeeder_InsertFailureIsSeedError(t *testing.T) {
	h, mock := storetest.NewMockHandle(t, "site_shop1")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "settings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "settings"`)).WillReturnError(errInjected)
	mock.ExpectRollback()

	err := NewBaselineSeeder("default").Seed(context.Background(), h, Credential{Email: "admin@example.com", Password: "Admin@123"})
	var seedErr *SeedError
	require.ErrorAs(t, err, &seedErr)
	assert.ErrorIs(t, err, errInjected)
	require.NoError(t, mock.ExpectationsWereMet())
}

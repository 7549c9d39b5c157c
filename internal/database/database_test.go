package database

import (
	"errors"
	"fmt"
	"testing"

	"sitehub/internal/cache"
	"sitehub/internal/store"
	"sitehub/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "sqlite"}, "release")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestControlPlaneClassifier(t *testing.T) {
	classify := ControlPlaneClassifier(store.DialectPostgres)

	assert.True(t, classify(gorm.ErrDuplicatedKey))
	assert.True(t, classify(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, classify(&pgconn.PgError{Code: "42P07"}))
	assert.False(t, classify(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, classify(errors.New("connection reset")))
}

func TestControlPlaneModels(t *testing.T) {
	assert.Len(t, ControlPlaneModels(), 3)
}

func TestNewTenantCache_DisabledIsNoop(t *testing.T) {
	c := NewTenantCache(config.RedisConfig{Enabled: false})
	assert.IsType(t, cache.Noop{}, c)
}

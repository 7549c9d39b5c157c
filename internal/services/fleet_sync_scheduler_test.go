package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitehub/internal/fleet"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncer struct {
	result  *fleet.Result
	err     error
	started chan struct{}
	release chan struct{}
	panics  bool
}

func (s *stubSyncer) SyncAll(ctx context.Context) (*fleet.Result, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.panics {
		panic("registry unavailable")
	}
	return s.result, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestFleetSyncScheduler_RunNowKeepsLastResult(t *testing.T) {
	want := &fleet.Result{Succeeded: []fleet.TenantOutcome{{Tenant: "shop1"}}}
	s := NewFleetSyncScheduler(&stubSyncer{result: want}, "", quietLogger())

	_, ok := s.LastRun()
	assert.False(t, ok)

	got, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)

	last, ok := s.LastRun()
	require.True(t, ok)
	assert.Empty(t, last.Error)
	assert.Equal(t, TriggerManual, last.Trigger)
	assert.Same(t, want, last.Result)
}

func TestFleetSyncScheduler_RecordsEnumerationError(t *testing.T) {
	s := NewFleetSyncScheduler(&stubSyncer{err: errors.New("枚举租户失败")}, "", quietLogger())

	_, err := s.RunNow(context.Background())
	require.Error(t, err)

	last, ok := s.LastRun()
	require.True(t, ok)
	assert.Equal(t, "枚举租户失败", last.Error)
	assert.Nil(t, last.Result)
}

func TestFleetSyncScheduler_PanicReleasesSyncFlag(t *testing.T) {
	syncer := &stubSyncer{panics: true}
	s := NewFleetSyncScheduler(syncer, "", quietLogger())

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry unavailable")
	assert.Equal(t, false, s.GetStatus()["syncing"])

	last, ok := s.LastRun()
	require.True(t, ok)
	assert.NotEmpty(t, last.Error)

	syncer.panics = false
	syncer.result = &fleet.Result{}
	_, err = s.RunNow(context.Background())
	assert.NoError(t, err)
}

func TestFleetSyncScheduler_RejectsOverlappingRun(t *testing.T) {
	syncer := &stubSyncer{
		result:  &fleet.Result{},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewFleetSyncScheduler(syncer, "", quietLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background())
	}()
	<-syncer.started

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Equal(t, true, s.GetStatus()["syncing"])

	close(syncer.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("全量同步未结束")
	}
	assert.Equal(t, false, s.GetStatus()["syncing"])
}

func TestFleetSyncScheduler_StartWithoutCron(t *testing.T) {
	s := NewFleetSyncScheduler(&stubSyncer{}, "", quietLogger())
	require.NoError(t, s.Start())
	assert.Equal(t, false, s.GetStatus()["running"])
	s.Stop()
}

func TestFleetSyncScheduler_StartRejectsInvalidCron(t *testing.T) {
	s := NewFleetSyncScheduler(&stubSyncer{}, "every tuesday", quietLogger())
	assert.Error(t, s.Start())
}

func TestFleetSyncScheduler_StartAndStop(t *testing.T) {
	s := NewFleetSyncScheduler(&stubSyncer{result: &fleet.Result{}}, "@hourly", quietLogger())
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	status := s.GetStatus()
	assert.Equal(t, true, status["running"])
	assert.Contains(t, status, "next_run")
	assert.Error(t, s.Start())
}

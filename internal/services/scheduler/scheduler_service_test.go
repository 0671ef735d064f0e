package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/models"
)

type countingAlerts struct {
	sweeps atomic.Int32
}

func (a *countingAlerts) Register(ctx context.Context, alert *models.Alert) (string, error) {
	return "", nil
}

func (a *countingAlerts) ActiveAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return nil, nil
}

func (a *countingAlerts) CheckAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return nil, nil
}

func (a *countingAlerts) CheckAll(ctx context.Context) ([]models.Alert, error) {
	a.sweeps.Add(1)
	return nil, nil
}

func TestSweepRunsOnce(t *testing.T) {
	alerts := &countingAlerts{}
	svc := NewService(alerts, arbor.NewLogger())

	svc.runSweep()
	assert.Equal(t, int32(1), alerts.sweeps.Load())
}

func TestStartStop(t *testing.T) {
	svc := NewService(&countingAlerts{}, arbor.NewLogger())

	require.NoError(t, svc.Start("*/2 * * * *"))
	assert.True(t, svc.IsRunning())
	assert.Error(t, svc.Start("*/2 * * * *"))

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Stop())
}

func TestStartRejectsBadExpression(t *testing.T) {
	svc := NewService(&countingAlerts{}, arbor.NewLogger())
	assert.Error(t, svc.Start("not a cron expr"))
}

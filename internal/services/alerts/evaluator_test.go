package alerts

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	badgerstore "github.com/ternarybob/nivesh/internal/storage/badger"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// fixedMarket serves canned prices and records nothing
type fixedMarket struct {
	prices map[string]float64
}

func (m *fixedMarket) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	code := models.ParseInstrument(symbol).Code
	price, ok := m.prices[code]
	if !ok {
		return nil, interfaces.ErrDataUnavailable
	}
	return &models.Quote{Symbol: code, Price: price, Currency: "INR"}, nil
}

func (m *fixedMarket) FetchIndex(ctx context.Context, name string) (*models.Quote, error) {
	return m.FetchQuote(ctx, name)
}

func (m *fixedMarket) FetchMany(ctx context.Context, symbols []string) map[string]*models.Quote {
	results := make(map[string]*models.Quote)
	for _, symbol := range symbols {
		if quote, err := m.FetchQuote(ctx, symbol); err == nil {
			results[quote.Symbol] = quote
		}
	}
	return results
}

// recordingNotifier captures pushed alerts
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (n *recordingNotifier) NotifyAlert(alert models.Alert, quote *models.Quote) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func newTestService(t *testing.T, market interfaces.MarketDataService, notifier interfaces.AlertNotifier) (*Service, interfaces.AlertStorage) {
	t.Helper()

	logger := arbor.NewLogger()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db := badgerstore.NewBadgerDBFromStore(store, logger)
	storage := badgerstore.NewAlertStorage(db, logger)
	return NewService(storage, market, notifier, logger), storage
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t, &fixedMarket{}, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "nifty", ThresholdPrice: -5, Direction: models.AlertAbove})
	assert.Error(t, err)

	id, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "nifty", ThresholdPrice: 22500, Direction: models.AlertAbove})
	require.NoError(t, err)
	assert.Contains(t, id, "alert_")

	active, err := svc.ActiveAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "^NSEI", active[0].Symbol) // Symbol normalized on registration
	assert.True(t, active[0].Active)
}

func TestCheckAlertsSingleFire(t *testing.T) {
	market := &fixedMarket{prices: map[string]float64{"^NSEI": 22600}}
	notifier := &recordingNotifier{}
	svc, storage := newTestService(t, market, notifier)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "nifty", ThresholdPrice: 22500, Direction: models.AlertAbove})
	require.NoError(t, err)

	fired, err := svc.CheckAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.False(t, fired[0].Active)
	assert.NotNil(t, fired[0].TriggeredAt)

	// Second evaluation must not fire again
	fired, err = svc.CheckAlerts(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, fired)

	// Record kept in storage, deactivated
	kept, err := storage.Get(ctx, notifier.alerts[0].ID)
	require.NoError(t, err)
	assert.False(t, kept.Active)
	assert.Len(t, notifier.alerts, 1)
}

func TestCheckAlertsBelowDirection(t *testing.T) {
	market := &fixedMarket{prices: map[string]float64{"RELIANCE": 2800}}
	svc, _ := newTestService(t, market, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "RELIANCE", ThresholdPrice: 2900, Direction: models.AlertBelow})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "RELIANCE", ThresholdPrice: 2700, Direction: models.AlertBelow})
	require.NoError(t, err)

	fired, err := svc.CheckAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, 2900.0, fired[0].ThresholdPrice)
}

func TestCheckAlertsUnavailableSymbolStaysActive(t *testing.T) {
	market := &fixedMarket{prices: map[string]float64{}} // Nothing resolvable
	svc, _ := newTestService(t, market, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "RELIANCE", ThresholdPrice: 100, Direction: models.AlertAbove})
	require.NoError(t, err)

	fired, err := svc.CheckAlerts(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, fired)

	active, err := svc.ActiveAlerts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCheckAllSpansUsers(t *testing.T) {
	market := &fixedMarket{prices: map[string]float64{"TCS": 4200}}
	svc, _ := newTestService(t, market, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.Alert{UserID: "u1", Symbol: "TCS", ThresholdPrice: 4100, Direction: models.AlertAbove})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &models.Alert{UserID: "u2", Symbol: "TCS", ThresholdPrice: 4000, Direction: models.AlertAbove})
	require.NoError(t, err)

	fired, err := svc.CheckAll(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
}

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// fakeMarket serves canned prices keyed by canonical code
type fakeMarket struct {
	quotes map[string]*models.Quote
}

func (m *fakeMarket) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	code := models.ParseInstrument(symbol).Code
	if quote, ok := m.quotes[code]; ok {
		return quote, nil
	}
	return nil, interfaces.ErrDataUnavailable
}

func (m *fakeMarket) FetchIndex(ctx context.Context, name string) (*models.Quote, error) {
	return m.FetchQuote(ctx, name)
}

func (m *fakeMarket) FetchMany(ctx context.Context, symbols []string) map[string]*models.Quote {
	results := make(map[string]*models.Quote)
	for _, symbol := range symbols {
		if quote, err := m.FetchQuote(ctx, symbol); err == nil {
			results[quote.Symbol] = quote
		}
	}
	return results
}

// echoLLM returns the final user message so tests can inspect the
// composed prompt; failing simulates an outage
type echoLLM struct {
	failing bool
}

func (l *echoLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if l.failing {
		return "", errors.New("model unreachable")
	}
	return messages[len(messages)-1].Content, nil
}

func (l *echoLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (l *echoLLM) HealthCheck(ctx context.Context) error { return nil }
func (l *echoLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeOffline }
func (l *echoLLM) Close() error                          { return nil }

// recordingMemory captures appended turns
type recordingMemory struct {
	turns []models.ConversationTurn
}

func (m *recordingMemory) Append(ctx context.Context, turn *models.ConversationTurn) error {
	m.turns = append(m.turns, *turn)
	return nil
}

func (m *recordingMemory) RecentContext(ctx context.Context, userID string, maxTurns int) ([]models.ConversationTurn, error) {
	return nil, nil
}

func (m *recordingMemory) SimilarPast(ctx context.Context, userID string, queryText string, k int) ([]models.ConversationTurn, error) {
	return nil, nil
}

// recordingAlerts captures registered alerts
type recordingAlerts struct {
	registered []models.Alert
	active     []models.Alert
	fired      []models.Alert
}

func (a *recordingAlerts) Register(ctx context.Context, alert *models.Alert) (string, error) {
	alert.ID = "alert_test"
	alert.Active = true
	a.registered = append(a.registered, *alert)
	return alert.ID, nil
}

func (a *recordingAlerts) ActiveAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return a.active, nil
}

func (a *recordingAlerts) CheckAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return a.fired, nil
}

func (a *recordingAlerts) CheckAll(ctx context.Context) ([]models.Alert, error) {
	return a.fired, nil
}

// fakePortfolio returns a canned snapshot
type fakePortfolio struct {
	snapshot *models.PortfolioSnapshot
}

func (p *fakePortfolio) Analyze(ctx context.Context, userID string, holdings []models.Holding) (*models.PortfolioSnapshot, error) {
	if p.snapshot == nil {
		return nil, errors.New("no data")
	}
	return p.snapshot, nil
}

type fixture struct {
	svc    *Service
	memory *recordingMemory
	alerts *recordingAlerts
	llm    *echoLLM
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	classifier, err := NewClassifier("", arbor.NewLogger())
	require.NoError(t, err)

	market := &fakeMarket{quotes: map[string]*models.Quote{
		"^NSEI": {Symbol: "^NSEI", Price: 22550.00, Change: 120.50, ChangePct: 0.54, Currency: "INR", Provider: "yahoo"},
		"TCS":   {Symbol: "TCS", Price: 4100.25, Change: -12.00, ChangePct: -0.29, Currency: "INR", Provider: "yahoo"},
	}}

	f := &fixture{
		memory: &recordingMemory{},
		alerts: &recordingAlerts{},
		llm:    &echoLLM{},
	}
	f.svc = NewService(
		classifier,
		market,
		f.alerts,
		&fakePortfolio{snapshot: &models.PortfolioSnapshot{
			UserID: "u1",
			Positions: []models.Position{
				{Holding: models.Holding{Ticker: "TCS", Quantity: 10}, Quote: market.quotes["TCS"], Value: 41002.5},
			},
			TotalValue: 41002.5,
			Currency:   "INR",
		}},
		f.memory,
		f.llm,
		nil,
		nil,
		Options{RecentTurns: 4, SimilarTurns: 0},
		arbor.NewLogger(),
	)
	return f
}

func TestHandleRequestIndexQuery(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "where is nifty today")
	require.NoError(t, err)
	assert.Contains(t, answer, "22,550.00")

	// Exactly two turns: the question and the reply
	require.Len(t, f.memory.turns, 2)
	assert.Equal(t, models.TurnRoleUser, f.memory.turns[0].Role)
	assert.Equal(t, "where is nifty today", f.memory.turns[0].Text)
	assert.Equal(t, models.TurnRoleAssistant, f.memory.turns[1].Role)
	assert.Equal(t, answer, f.memory.turns[1].Text)
}

func TestHandleRequestLLMFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.llm.failing = true

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "price of TCS")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, degradedHeader))
	assert.Contains(t, answer, "4,100.25")
	assert.Len(t, f.memory.turns, 2)
}

func TestHandleRequestUnavailableSymbol(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "price of BOGUS")
	require.NoError(t, err)
	assert.Contains(t, answer, "unavailable")
	assert.Len(t, f.memory.turns, 2)
}

func TestHandleRequestAlertSet(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "alert me when TCS goes above 4200")
	require.NoError(t, err)
	assert.Contains(t, answer, "TCS")
	assert.Contains(t, answer, "4,200.00")

	require.Len(t, f.alerts.registered, 1)
	assert.Equal(t, "TCS", f.alerts.registered[0].Symbol)
	assert.Equal(t, 4200.0, f.alerts.registered[0].ThresholdPrice)
	assert.Equal(t, models.AlertAbove, f.alerts.registered[0].Direction)
	assert.Len(t, f.memory.turns, 2)
}

func TestHandleRequestCompoundIntents(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "show nifty and alert me when TCS goes above 4200")
	require.NoError(t, err)

	// Both sub-workflows ran: the index level is in the answer and the
	// alert was registered
	assert.Contains(t, answer, "22,550.00")
	assert.Contains(t, answer, "4,200.00")

	require.Len(t, f.alerts.registered, 1)
	assert.Equal(t, "TCS", f.alerts.registered[0].Symbol)
	assert.Equal(t, 4200.0, f.alerts.registered[0].ThresholdPrice)

	assert.Len(t, f.memory.turns, 2)
}

func TestHandleRequestAlertCheckEmpty(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "check my alerts")
	require.NoError(t, err)
	assert.Contains(t, answer, "No alerts set")
}

func TestHandleRequestPortfolio(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "analyze my portfolio TCS:10")
	require.NoError(t, err)
	assert.Contains(t, answer, "41,002.50")
	assert.Len(t, f.memory.turns, 2)
}

func TestHandleRequestEmptyMessageClarifies(t *testing.T) {
	f := newFixture(t)

	answer, err := f.svc.HandleRequest(context.Background(), "u1", "  ")
	require.NoError(t, err)
	assert.Equal(t, clarificationReply, answer)
	assert.Len(t, f.memory.turns, 2)
}

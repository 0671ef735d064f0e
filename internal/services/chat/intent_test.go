package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	classifier, err := NewClassifier("", arbor.NewLogger())
	require.NoError(t, err)
	return classifier
}

func TestClassifyIntents(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		message string
		want    Intent
	}{
		{"what is the price of RELIANCE", IntentQuote},
		{"TCS quote please", IntentQuote},
		{"how much is INFY trading at", IntentQuote},
		{"where is nifty today", IntentIndex},
		{"sensex level", IntentIndex},
		{"how is the market doing", IntentIndex},
		{"gold rate today", IntentGold},
		{"analyze my portfolio RELIANCE:100, TCS:50", IntentPortfolio},
		{"generate a pdf report for my holdings TCS:10", IntentReport},
		{"alert me when TCS goes above 4200", IntentAlertSet},
		{"notify me if RELIANCE falls below 2800", IntentAlertSet},
		{"check my alerts", IntentAlertCheck},
		{"any alerts triggered?", IntentAlertCheck},
		{"latest news on banking stocks", IntentNews},
		{"thanks, that was helpful", IntentConversational},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, err := classifier.Classify(tt.message)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0].Intent)
		})
	}
}

func TestClassifyCompoundMessage(t *testing.T) {
	classifier := newTestClassifier(t)

	got, err := classifier.Classify("show nifty and alert me when TCS goes above 4200")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byIntent := make(map[Intent]Classification, len(got))
	for _, classification := range got {
		byIntent[classification.Intent] = classification
	}

	require.Contains(t, byIntent, IntentIndex)
	assert.Equal(t, "nifty", byIntent[IntentIndex].Symbol)

	require.Contains(t, byIntent, IntentAlertSet)
	assert.Equal(t, "TCS", byIntent[IntentAlertSet].Symbol)
	assert.Equal(t, 4200.0, byIntent[IntentAlertSet].Threshold)
	assert.Equal(t, models.AlertAbove, byIntent[IntentAlertSet].Direction)
}

func TestClassifyOverlapSuppression(t *testing.T) {
	classifier := newTestClassifier(t)

	// A report request covers the portfolio valuation already
	got, err := classifier.Classify("generate a pdf report for my holdings TCS:10")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, IntentReport, got[0].Intent)

	// "nifty price" is one index question, not index plus symbol-less quote
	got, err = classifier.Classify("nifty price today")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, IntentIndex, got[0].Intent)
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := newTestClassifier(t)

	for i := 0; i < 5; i++ {
		got, err := classifier.Classify("alert me when TCS goes above 4200")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, IntentAlertSet, got[0].Intent)
		assert.Equal(t, "TCS", got[0].Symbol)
	}
}

func TestClassifyAlertParams(t *testing.T) {
	classifier := newTestClassifier(t)

	got, err := classifier.Classify("alert me when RELIANCE falls below 2,850.50")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, IntentAlertSet, got[0].Intent)
	assert.Equal(t, "RELIANCE", got[0].Symbol)
	assert.Equal(t, 2850.50, got[0].Threshold)
	assert.Equal(t, models.AlertBelow, got[0].Direction)

	got, err = classifier.Classify("tell me when TCS crosses 4200")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, models.AlertAbove, got[0].Direction)
	assert.Equal(t, 4200.0, got[0].Threshold)
}

func TestClassifyIndexNames(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		message string
		symbol  string
	}{
		{"nifty level please", "nifty"},
		{"what about the sensex", "sensex"},
		{"bank nifty today", "banknifty"},
	}
	for _, tt := range tests {
		got, err := classifier.Classify(tt.message)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, IntentIndex, got[0].Intent)
		assert.Equal(t, tt.symbol, got[0].Symbol)
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	classifier := newTestClassifier(t)

	_, err := classifier.Classify("   ")
	assert.ErrorIs(t, err, interfaces.ErrClassificationFailure)
}

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{22550.0, "22,550.00"},
		{102500.5, "1,02,500.50"},
		{999.99, "999.99"},
		{10000000, "1,00,00,000.00"},
		{-1500, "-1,500.00"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatINR(tt.amount))
	}
}

func TestSentimentTag(t *testing.T) {
	assert.Equal(t, "bullish", sentimentTag(0.8))
	assert.Equal(t, "bearish", sentimentTag(-1.2))
	assert.Equal(t, "neutral", sentimentTag(0.1))
	assert.Equal(t, "neutral", sentimentTag(-0.2))
}

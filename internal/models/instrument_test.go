package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInstrument(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantKind InstrumentKind
	}{
		{"bare ticker upper-cased", "reliance", "RELIANCE", InstrumentStock},
		{"yahoo suffix stripped", "TCS.NS", "TCS", InstrumentStock},
		{"bse suffix stripped", "INFY.BO", "INFY", InstrumentStock},
		{"whitespace trimmed", "  hdfcbank  ", "HDFCBANK", InstrumentStock},
		{"nifty alias", "nifty", "^NSEI", InstrumentIndex},
		{"nifty 50 alias", "Nifty 50", "^NSEI", InstrumentIndex},
		{"sensex alias", "SENSEX", "^BSESN", InstrumentIndex},
		{"bank nifty alias", "banknifty", "^NSEBANK", InstrumentIndex},
		{"raw index symbol", "^nsei", "^NSEI", InstrumentIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := ParseInstrument(tt.input)
			assert.Equal(t, tt.wantCode, inst.Code)
			assert.Equal(t, tt.wantKind, inst.Kind)
		})
	}
}

func TestInstrumentProviderSymbols(t *testing.T) {
	stock := ParseInstrument("RELIANCE")
	assert.Equal(t, "RELIANCE.NS", stock.YahooSymbol())
	assert.Equal(t, "RELIANCE", stock.NSESymbol())
	assert.Equal(t, "RELIANCE.BSE", stock.AlphaVantageSymbol())

	index := ParseInstrument("nifty")
	assert.Equal(t, "^NSEI", index.YahooSymbol())
	assert.Equal(t, "NIFTY 50", index.NSESymbol())
	assert.Equal(t, "NIFTY 50", index.DisplayName())
}

func TestGoldInstrument(t *testing.T) {
	gold := GoldInstrument()
	assert.Equal(t, "GOLDBEES", gold.Code)
	assert.Equal(t, "GOLDBEES.NS", gold.YahooSymbol())
}

package models

import "strings"

// InstrumentKind distinguishes tradeable equities/ETFs from market indices
type InstrumentKind string

const (
	InstrumentStock InstrumentKind = "stock"
	InstrumentIndex InstrumentKind = "index"
)

// Instrument is a parsed, canonical reference to something quotable.
// Code is the bare NSE ticker for stocks/ETFs (e.g. RELIANCE, GOLDBEES)
// or the Yahoo index symbol for indices (e.g. ^NSEI).
type Instrument struct {
	Code string         `json:"code"`
	Kind InstrumentKind `json:"kind"`
}

// indexAliases maps common spoken names to Yahoo index symbols
var indexAliases = map[string]string{
	"nifty":      "^NSEI",
	"nifty50":    "^NSEI",
	"nifty 50":   "^NSEI",
	"sensex":     "^BSESN",
	"bse":        "^BSESN",
	"banknifty":  "^NSEBANK",
	"bank nifty": "^NSEBANK",
}

// indexNames maps Yahoo index symbols to NSE display names
var indexNames = map[string]string{
	"^NSEI":    "NIFTY 50",
	"^NSEBANK": "NIFTY BANK",
	"^BSESN":   "SENSEX",
}

// ParseInstrument normalizes free-form user input into an Instrument.
// Index aliases resolve to index instruments; everything else is treated
// as an NSE equity/ETF ticker, upper-cased with exchange suffixes stripped.
func ParseInstrument(input string) Instrument {
	s := strings.ToLower(strings.TrimSpace(input))
	if yahoo, ok := indexAliases[s]; ok {
		return Instrument{Code: yahoo, Kind: InstrumentIndex}
	}
	if strings.HasPrefix(s, "^") {
		return Instrument{Code: strings.ToUpper(s), Kind: InstrumentIndex}
	}

	code := strings.ToUpper(strings.TrimSpace(input))
	code = strings.TrimSuffix(code, ".NS")
	code = strings.TrimSuffix(code, ".BO")
	return Instrument{Code: code, Kind: InstrumentStock}
}

// GoldInstrument returns the GOLDBEES ETF used as the gold price proxy
func GoldInstrument() Instrument {
	return Instrument{Code: "GOLDBEES", Kind: InstrumentStock}
}

// YahooSymbol returns the symbol in Yahoo Finance notation
// (bare NSE tickers gain the .NS suffix, indices pass through)
func (i Instrument) YahooSymbol() string {
	if i.Kind == InstrumentIndex {
		return i.Code
	}
	return i.Code + ".NS"
}

// NSESymbol returns the symbol in NSE India API notation. For indices this
// is the exchange display name (e.g. "NIFTY 50"); unknown indices return "".
func (i Instrument) NSESymbol() string {
	if i.Kind == InstrumentIndex {
		return indexNames[i.Code]
	}
	return i.Code
}

// AlphaVantageSymbol returns the symbol in Alpha Vantage notation.
// Indian listings are quoted on the BSE feed.
func (i Instrument) AlphaVantageSymbol() string {
	if i.Kind == InstrumentIndex {
		return i.Code
	}
	return i.Code + ".BSE"
}

// DisplayName is the human-facing name used when composing answers
func (i Instrument) DisplayName() string {
	if i.Kind == InstrumentIndex {
		if name, ok := indexNames[i.Code]; ok {
			return name
		}
	}
	return i.Code
}

// String returns the canonical cache/lookup key for the instrument
func (i Instrument) String() string {
	return i.Code
}

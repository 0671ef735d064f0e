package chat

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// Intent identifies what a user message is asking for
type Intent string

const (
	IntentQuote          Intent = "quote"
	IntentIndex          Intent = "index"
	IntentGold           Intent = "gold"
	IntentPortfolio      Intent = "portfolio"
	IntentReport         Intent = "report"
	IntentAlertSet       Intent = "alert_set"
	IntentAlertCheck     Intent = "alert_check"
	IntentNews           Intent = "news"
	IntentConversational Intent = "conversational"
)

// Classification is the result of classifying one message
type Classification struct {
	Intent    Intent
	Symbol    string
	Threshold float64
	Direction models.AlertDirection
}

// rule is one ordered classification rule. First match wins.
type rule struct {
	intent  Intent
	pattern *regexp.Regexp
}

// customRule is the YAML shape for user-supplied rules
type customRule struct {
	Intent  string `yaml:"intent"`
	Pattern string `yaml:"pattern"`
}

// Classifier maps free-text messages to intents using an ordered list of
// regular expressions. Classification is fully deterministic: the same
// message always yields the same intent, with no model in the loop.
type Classifier struct {
	rules  []rule
	logger arbor.ILogger
}

var (
	alertSetPattern   = regexp.MustCompile(`(?i)\b(alert|notify|ping|tell)\b.*\b(above|below|over|under|crosses|reaches|hits|falls)\b`)
	alertCheckPattern = regexp.MustCompile(`(?i)\b(check|any|list|show|my|did)\b.*\balerts?\b|\balerts?\b.*\b(triggered|fired|status)\b`)
	reportPattern     = regexp.MustCompile(`(?i)\b(pdf|report|download|statement)\b`)
	portfolioPattern  = regexp.MustCompile(`(?i)\bportfolio\b|\bholdings?\b|\bmy (stocks|shares|investments)\b`)
	newsPattern       = regexp.MustCompile(`(?i)\bnews\b|\bheadlines?\b|\bwhat('?s| is) happening\b`)
	goldPattern       = regexp.MustCompile(`(?i)\bgold\b|\bbullion\b|\bsovereign\b`)
	indexPattern      = regexp.MustCompile(`(?i)\bnifty\b|\bsensex\b|\bbank\s*nifty\b|\bindex\b|\bindices\b|\bmarket (level|status|doing)\b`)
	quotePattern      = regexp.MustCompile(`(?i)\bprice\b|\bquote\b|\bltp\b|\btrading at\b|\bhow much is\b|\bvalue of\b`)

	// symbolPattern pulls a ticker-looking token out of a message
	symbolPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9&\-]{2,19})\b`)

	// thresholdPattern matches the numeric threshold in an alert request,
	// tolerating Indian digit grouping ("1,02,500.50")
	thresholdPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)`)

	belowPattern = regexp.MustCompile(`(?i)\b(below|under|falls|drops)\b`)
)

// symbolStopwords are uppercase chat words that are not tickers
var symbolStopwords = map[string]bool{
	"THE": true, "WHAT": true, "WHATS": true, "PRICE": true, "QUOTE": true,
	"ALERT": true, "WHEN": true, "ABOVE": true, "BELOW": true, "GOES": true,
	"AND": true, "FOR": true, "HOW": true, "MUCH": true, "NIFTY": true,
	"SENSEX": true, "NEWS": true, "SHOW": true, "TELL": true, "CHECK": true,
	"PLEASE": true, "TODAY": true, "CURRENT": true, "LTP": true, "GOLD": true,
	"RATE": true, "WITH": true, "NOTIFY": true, "CROSSES": true, "REACHES": true,
	"HITS": true, "OVER": true, "UNDER": true, "FALLS": true, "DROPS": true,
}

// NewClassifier creates a classifier with the built-in rule set. rulesFile
// may name a YAML file of extra rules that are checked before the built-ins;
// an empty path means built-ins only.
func NewClassifier(rulesFile string, logger arbor.ILogger) (*Classifier, error) {
	c := &Classifier{logger: logger}

	if rulesFile != "" {
		custom, err := loadCustomRules(rulesFile)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, custom...)
	}

	// Order matters: alert phrasing mentions prices and symbols, so alert
	// rules run before quote rules; portfolio before quote for the same
	// reason.
	c.rules = append(c.rules,
		rule{IntentAlertSet, alertSetPattern},
		rule{IntentAlertCheck, alertCheckPattern},
		rule{IntentReport, reportPattern},
		rule{IntentPortfolio, portfolioPattern},
		rule{IntentNews, newsPattern},
		rule{IntentGold, goldPattern},
		rule{IntentIndex, indexPattern},
		rule{IntentQuote, quotePattern},
	)

	return c, nil
}

// loadCustomRules reads extra rules from a YAML file
func loadCustomRules(path string) ([]rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier rules file: %w", err)
	}

	var parsed []customRule
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse classifier rules file: %w", err)
	}

	rules := make([]rule, 0, len(parsed))
	for _, cr := range parsed {
		compiled, err := regexp.Compile(cr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid classifier rule pattern %q: %w", cr.Pattern, err)
		}
		rules = append(rules, rule{intent: Intent(cr.Intent), pattern: compiled})
	}
	return rules, nil
}

// Classify determines the intents of a message. A compound request
// ("show nifty and alert me when TCS goes above 4200") yields one
// classification per matched rule, in rule order. Messages that match no
// rule but still carry words fall back to conversational; empty messages
// return ErrClassificationFailure.
func (c *Classifier) Classify(message string) ([]Classification, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty message", interfaces.ErrClassificationFailure)
	}

	matched := make([]Classification, 0, 2)
	seen := make(map[Intent]bool)
	for _, r := range c.rules {
		if seen[r.intent] || !r.pattern.MatchString(trimmed) {
			continue
		}
		seen[r.intent] = true
		classification := Classification{Intent: r.intent}
		c.extractParams(trimmed, &classification)
		matched = append(matched, classification)
	}

	matched = resolveOverlaps(matched)
	if len(matched) == 0 {
		return []Classification{{Intent: IntentConversational}}, nil
	}
	return matched, nil
}

// resolveOverlaps drops matches that another match subsumes: an alert
// registration phrases like an alert check, a report already includes the
// portfolio valuation, and a quote match without a symbol is only useful
// as a clarification when nothing else matched.
func resolveOverlaps(matched []Classification) []Classification {
	has := make(map[Intent]bool, len(matched))
	for _, m := range matched {
		has[m.Intent] = true
	}

	kept := matched[:0]
	for _, m := range matched {
		switch {
		case m.Intent == IntentAlertCheck && has[IntentAlertSet]:
			continue
		case m.Intent == IntentPortfolio && has[IntentReport]:
			continue
		case m.Intent == IntentQuote && m.Symbol == "" && len(has) > 1:
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// extractParams pulls intent-specific parameters out of the message
func (c *Classifier) extractParams(message string, classification *Classification) {
	switch classification.Intent {
	case IntentQuote:
		classification.Symbol = extractSymbol(message)
	case IntentIndex:
		classification.Symbol = extractIndex(message)
	case IntentGold:
		classification.Symbol = models.GoldInstrument().Code
	case IntentAlertSet:
		classification.Symbol = extractSymbol(message)
		classification.Threshold = extractThreshold(message)
		if belowPattern.MatchString(message) {
			classification.Direction = models.AlertBelow
		} else {
			classification.Direction = models.AlertAbove
		}
	}
}

// extractSymbol finds the first ticker-looking uppercase token
func extractSymbol(message string) string {
	for _, match := range symbolPattern.FindAllString(message, -1) {
		if !symbolStopwords[match] {
			return match
		}
	}
	return ""
}

// extractIndex maps index mentions to their canonical name
func extractIndex(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "banknifty") || strings.Contains(lower, "bank nifty"):
		return "banknifty"
	case strings.Contains(lower, "sensex"):
		return "sensex"
	default:
		return "nifty"
	}
}

// extractThreshold finds the largest number in the message, taking it as
// the alert threshold. Largest wins so a share count in the same sentence
// does not shadow the price.
func extractThreshold(message string) float64 {
	var best float64
	for _, match := range thresholdPattern.FindAllString(message, -1) {
		cleaned := strings.ReplaceAll(match, ",", "")
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		if value > best {
			best = value
		}
	}
	return best
}

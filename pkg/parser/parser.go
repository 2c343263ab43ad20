// Package parser turns short free-text expense notes such as "799 zomato upi - dinner"
// into structured records.
//
// Every stage is a pure function of its input. The current time and the reference
// timezone are injected, so Parse returns identical results for identical inputs and
// callers may memoize it by text.
package parser

import (
	"strings"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// Parser runs the extraction stages in sequence.
type Parser struct {
	loc        *time.Location
	rules      []CategoryRule
	lookup     TermLookup
	classifier *Classifier
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the reference timezone for date resolution.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		p.loc = loc
	}
}

// WithRules replaces the category rule table.
func WithRules(rules []CategoryRule) Option {
	return func(p *Parser) {
		p.rules = rules
	}
}

// WithTermLookup consults lookup, keyed by lower-cased merchant, before the rule table.
func WithTermLookup(lookup TermLookup) Option {
	return func(p *Parser) {
		p.lookup = lookup
	}
}

// New creates a parser. Without options it uses the reference timezone and DefaultRules.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.loc == nil {
		p.loc = ReferenceLocation()
	}
	p.classifier = NewClassifier(p.rules, p.lookup)
	return p
}

// Location returns the reference timezone the parser resolves dates in.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Parse extracts every field it can from raw. It never fails: fields that cannot
// be determined are left absent and lower the confidence.
func (p *Parser) Parse(raw string, now time.Time) api.ParseResult {
	text := strings.TrimSpace(raw)

	result := api.ParseResult{
		AmountMinor: ExtractAmount(text),
		OccurredAt:  ResolveDate(text, now, p.loc),
		Method:      ClassifyMethod(text),
		RawText:     raw,
	}
	result.Merchant, result.Note = Segment(text)
	result.Category = p.classifier.Classify(result.Merchant, result.Note)
	result.Confidence = Score(text, result)

	return result
}

var defaultParser = New()

// Parse runs the default parser.
func Parse(raw string, now time.Time) api.ParseResult {
	return defaultParser.Parse(raw, now)
}

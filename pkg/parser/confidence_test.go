package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ArionMiles/spendnote/pkg/api"
)

func TestScore(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 30, 0, 0, ReferenceLocation())
	noRules := New(WithRules([]CategoryRule{}))

	tests := []struct {
		name   string
		parser *Parser
		text   string
		want   float64
	}{
		{"fully understood", defaultParser, "799 zomato upi - dinner", 1.0},
		{"no amount", defaultParser, "zomato upi - dinner", 0},
		{"method hinted but unresolved", defaultParser, "500 cards shop", 0.9},
		{"date hinted but invalid", defaultParser, "500 tea 31/2", 0.9},
		{"yesterday hinted inside a word", defaultParser, "200 chai yesterdays", 0.9},
		{"no merchant", defaultParser, "500", 0.8},
		{"single character merchant", defaultParser, "500 x", 0.8},
		{"brand without category", noRules, "500 zomato", 0.85},
		{"penalties add up", noRules, "500 zomato cards 31/2", 0.65},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.parser.Parse(tc.text, now)
			assert.Equal(t, tc.want, got.Confidence)
		})
	}
}

func TestScore_EmptyResult(t *testing.T) {
	assert.Equal(t, 0.0, Score("", api.ParseResult{}))
}

func TestHasDayMonthShape(t *testing.T) {
	assert.True(t, hasDayMonthShape("on 3/4"))
	assert.True(t, hasDayMonthShape("3-4"))
	assert.False(t, hasDayMonthShape("zomato - dinner"))
	assert.False(t, hasDayMonthShape("/4"))
}

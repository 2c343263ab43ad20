package parser

import (
	"regexp"
	"strings"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// CategoryRule assigns Category when Pattern matches merchant and note.
type CategoryRule struct {
	Category string
	Pattern  *regexp.Regexp
}

// DefaultRules is the ordered rule table. The first matching rule wins, so a
// text naming both a restaurant and a shop is Food.
var DefaultRules = []CategoryRule{
	{"Food", regexp.MustCompile(`(?i)zomato|swiggy|restaurant|dinner|lunch|breakfast|snack|food|cafe`)},
	{"Transport", regexp.MustCompile(`(?i)uber|\bola\b|rapido|petrol|fuel|\bcab\b|\bauto\b|metro`)},
	{"Groceries", regexp.MustCompile(`(?i)blinkit|bigbasket|zepto|grocer|milk|vegg?ie`)},
	{"Shopping", regexp.MustCompile(`(?i)amazon|flipkart|myntra|ajio|shopping`)},
	{"Bills", regexp.MustCompile(`(?i)airtel|\bjio\b|wifi|broadband|electricity|recharge|bill`)},
	{"Subscriptions", regexp.MustCompile(`(?i)spotify|netflix|prime|hotstar|yt premium|youtube premium`)},
	{"Health", regexp.MustCompile(`(?i)apollo|1mg|pharma|doctor|medicine|hospital|clinic`)},
}

// TermLookup resolves a lower-cased merchant term to a category chosen by the user.
type TermLookup interface {
	LookupCategory(term string) (string, bool)
}

// Classifier assigns categories. A nil lookup means only the rule table is used.
type Classifier struct {
	rules  []CategoryRule
	lookup TermLookup
}

// NewClassifier creates a classifier over rules. Nil rules selects DefaultRules.
func NewClassifier(rules []CategoryRule, lookup TermLookup) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules, lookup: lookup}
}

// Classify returns the category for merchant and note, never an empty string.
func (c *Classifier) Classify(merchant, note string) string {
	if c.lookup != nil && merchant != "" {
		if category, ok := c.lookup.LookupCategory(strings.ToLower(merchant)); ok {
			return category
		}
	}

	blob := merchant + " " + note
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(blob) {
			return rule.Category
		}
	}
	return api.DefaultCategory
}

var defaultClassifier = NewClassifier(nil, nil)

// Classify runs the default rule table over merchant and note.
func Classify(merchant, note string) string {
	return defaultClassifier.Classify(merchant, note)
}

// Categories lists the categories of the default rules followed by the fallback.
func Categories() []string {
	out := make([]string, 0, len(DefaultRules)+1)
	for _, rule := range DefaultRules {
		out = append(out, rule.Category)
	}
	return append(out, api.DefaultCategory)
}

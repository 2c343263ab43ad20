package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantMerchant string
		wantNote     string
	}{
		{"hyphen", "799 zomato upi - dinner", "zomato", "dinner"},
		{"em dash", "zomato — dinner", "zomato", "dinner"},
		{"pipe", "zomato | dinner", "zomato", "dinner"},
		{"semicolon", "zomato ; dinner", "zomato", "dinner"},
		{"note label is case insensitive", "zomato Note: dinner", "zomato", "dinner"},
		{"hyphen beats pipe", "a | b - c", "a | b", "c"},
		{"note keeps later separators", "zomato - dinner - with friends", "zomato", "dinner - with friends"},
		{"separator at start", "500 - dinner", "", "dinner"},
		{"separator at end", "swiggy - ", "swiggy", ""},
		{"nothing left", "500 upi", "", ""},
		{"multi word alias removed", "credit card bill 2000", "bill", ""},
		{"alias inside word kept", "cashew nuts 300", "cashew nuts", ""},
		{"every amount removed", "100 tea 200 coffee", "tea  coffee", ""},
		{"hyphen without spaces", "zomato-dinner", "zomato-dinner", ""},
		{"interior spacing kept", "  big   basket \t order ", "big   basket \t order", ""},
		{"note spacing kept", "zomato - late  night", "zomato", "late  night"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			merchant, note := Segment(tc.text)
			assert.Equal(t, tc.wantMerchant, merchant)
			assert.Equal(t, tc.wantNote, note)
		})
	}
}

func TestStrip(t *testing.T) {
	assert.Equal(t, " zomato  - dinner", Strip("799 zomato upi - dinner"))
	assert.Equal(t, " chai", Strip("₹250 chai"))
}

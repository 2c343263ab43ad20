package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{"bare integer", "799 zomato upi - dinner", 79900},
		{"rs dot with thousands and paise", "rs. 1,234.50 swiggy - late night snack", 123450},
		{"rupee symbol", "₹250 chai", 25000},
		{"rupee symbol with space", "₹ 99.9 samosa", 9990},
		{"rs glued to digits", "rs500 auto", 50000},
		{"rs colon", "Rs: 40 parking", 4000},
		{"upper case marker", "RS 1,000 petrol", 100000},
		{"four digits without separators", "1500 uber", 150000},
		{"single fraction digit", "lunch 120.5", 12050},
		{"first amount wins", "100 tea 200 coffee", 10000},
		{"amount later in text", "dinner at toit 2,450", 245000},
		{"refund word negates", "refund 500 uber", -50000},
		{"refund word is case insensitive", "REFUND 75 myntra", -7500},
		{"leading minus negates", "-200 swiggy", -20000},
		{"minus and refund stay negative", "refund -300 amazon", -30000},
		{"minus before marker", "-₹1,500 myntra", -150000},
		{"fraction stops after two digits", "paid 12.345 for tea", 1234},
		{"marker after the numeral", "500rs chai", 50000},
		{"digits glued to a word", "uber500", 50000},
		{"digits inside a word", "abc123 xyz", 12300},
		{"lakh grouping stops at the first short group", "1,23,456 rent", 100},
		{"millions", "1,234,567.89 car", 123456789},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractAmount(tc.text)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestExtractAmount_Absent(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no digits", "coffee with friends"},
		{"empty", ""},
		{"refunded word without amount", "refund from amazon"},
		{"does not fit in minor units", "99999999999999999999 yacht"},
		{"marker without numeral", "rs. tea"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, ExtractAmount(tc.text))
		})
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"25,000", 2500000},
		{"₹25,000", 2500000},
		{"25k", 2500000},
		{"25 K", 2500000},
		{"rs 12.5k", 1250000},
		{"1.5 lakh", 15000000},
		{"2l", 20000000},
		{"1 crore", 1000000000},
		{"0", 0},
		{"  40000  ", 4000000},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got := ParseBudget(tc.text)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseBudget_Unreadable(t *testing.T) {
	for _, text := range []string{"", "lots", "25kg", "25,000 per month", "budget 25k", "99999999999999999 crore"} {
		t.Run(text, func(t *testing.T) {
			assert.Nil(t, ParseBudget(text))
		})
	}
}

func TestExtractAmount_RefundIsWholeWord(t *testing.T) {
	got := ExtractAmount("refunds 40 tea")
	require.NotNil(t, got)
	assert.Equal(t, int64(4000), *got)
}

func TestFindAmounts(t *testing.T) {
	text := "rs. 100 tea ₹20 and 3,000.5 later"

	ranges := FindAmounts(text)
	require.Len(t, ranges, 3)

	got := make([]string, 0, len(ranges))
	for _, r := range ranges {
		got = append(got, text[r[0]:r[1]])
	}
	assert.Equal(t, []string{"rs. 100", "₹20", "3,000.5"}, got)
}

func TestFindAmounts_GluedAndSplit(t *testing.T) {
	text := "uber500 then 12.345"

	ranges := FindAmounts(text)
	require.Len(t, ranges, 3)

	got := make([]string, 0, len(ranges))
	for _, r := range ranges {
		got = append(got, text[r[0]:r[1]])
	}
	assert.Equal(t, []string{"500", "12.34", "5"}, got)
}

func TestFindAmounts_MarkerInsideWord(t *testing.T) {
	text := "hours 5"

	ranges := FindAmounts(text)
	require.Len(t, ranges, 1)
	assert.Equal(t, "5", text[ranges[0][0]:ranges[0][1]])
}

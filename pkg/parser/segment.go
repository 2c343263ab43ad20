package parser

import "strings"

// Separators split the merchant from the note, in priority order.
// They are matched against lower-cased text.
var Separators = []string{" - ", " — ", " | ", " ; ", " note: "}

// Strip deletes every amount token and every whole-word payment method alias from text.
func Strip(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, r := range FindAmounts(text) {
		b.WriteString(text[last:r[0]])
		last = r[1]
	}
	b.WriteString(text[last:])

	return stripMethodAliases(b.String())
}

// Segment strips amounts and methods from text, then splits what is left into
// merchant and note at the highest-priority separator present. Either part is
// empty when absent. Only the edges are trimmed; interior spacing is kept.
func Segment(text string) (merchant, note string) {
	cleaned := strings.TrimSpace(Strip(text))
	if cleaned == "" {
		return "", ""
	}

	// Pad so a separator at either edge ("- dinner") still splits.
	padded := " " + cleaned + " "
	lower := lowerASCII(padded)
	for _, sep := range Separators {
		if idx := strings.Index(lower, sep); idx >= 0 {
			return strings.TrimSpace(padded[:idx]), strings.TrimSpace(padded[idx+len(sep):])
		}
	}
	return cleaned, ""
}

package parser

import "strings"

// The scanners in this package work on bytes. Only ASCII letters, digits and
// underscore count as word characters, so multi-byte runes such as "₹" or "—"
// always act as boundaries and byte offsets stay aligned with the input.

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isWordByte(b byte) bool {
	return isDigit(b) || isLetter(b) || b == '_'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// lowerASCII lower-cases ASCII letters only, keeping the byte length intact.
func lowerASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// boundaryBefore reports whether position i starts a word.
func boundaryBefore(s string, i int) bool {
	return i == 0 || !isWordByte(s[i-1])
}

// boundaryAfter reports whether position i ends a word.
func boundaryAfter(s string, i int) bool {
	return i >= len(s) || !isWordByte(s[i])
}

// indexWord returns the offset of the first whole-word occurrence of word in
// lower at or after from, or -1. lower and word must already be lower-cased.
func indexWord(lower, word string, from int) int {
	for from <= len(lower)-len(word) {
		idx := strings.Index(lower[from:], word)
		if idx < 0 {
			return -1
		}
		idx += from
		if boundaryBefore(lower, idx) && boundaryAfter(lower, idx+len(word)) {
			return idx
		}
		from = idx + 1
	}
	return -1
}

// containsWord reports whether text contains word as a whole word, ignoring ASCII case.
func containsWord(text, word string) bool {
	return indexWord(lowerASCII(text), word, 0) >= 0
}

// digitRun returns the end of the run of digits starting at i.
func digitRun(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// atoiSmall converts a short run of ASCII digits. Callers bound the length.
func atoiSmall(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

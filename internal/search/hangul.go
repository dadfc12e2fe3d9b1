package search

import (
	"strings"
	"unicode/utf8"
)

const (
	syllableBase  = 0xAC00
	syllableLast  = 0xD7A3
	medialCount   = 21
	finalCount    = 28
	syllableBlock = medialCount * finalCount
)

var initials = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")

var medials = []string{
	"ㅏ", "ㅐ", "ㅑ", "ㅒ", "ㅓ", "ㅔ", "ㅕ", "ㅖ", "ㅗ", "ㅗㅏ", "ㅗㅐ",
	"ㅗㅣ", "ㅛ", "ㅜ", "ㅜㅓ", "ㅜㅔ", "ㅜㅣ", "ㅠ", "ㅡ", "ㅡㅣ", "ㅣ",
}

var finals = []string{
	"", "ㄱ", "ㄲ", "ㄱㅅ", "ㄴ", "ㄴㅈ", "ㄴㅎ", "ㄷ", "ㄹ", "ㄹㄱ", "ㄹㅁ", "ㄹㅂ", "ㄹㅅ", "ㄹㅌ",
	"ㄹㅍ", "ㄹㅎ", "ㅁ", "ㅂ", "ㅂㅅ", "ㅅ", "ㅆ", "ㅇ", "ㅈ", "ㅊ", "ㅋ", "ㅌ", "ㅍ", "ㅎ",
}

// compound compatibility jamo typed on their own split the same way as inside a syllable
var compoundJamo = map[rune]string{
	'ㄳ': "ㄱㅅ", 'ㄵ': "ㄴㅈ", 'ㄶ': "ㄴㅎ", 'ㄺ': "ㄹㄱ", 'ㄻ': "ㄹㅁ", 'ㄼ': "ㄹㅂ",
	'ㄽ': "ㄹㅅ", 'ㄾ': "ㄹㅌ", 'ㄿ': "ㄹㅍ", 'ㅀ': "ㄹㅎ", 'ㅄ': "ㅂㅅ",
	'ㅘ': "ㅗㅏ", 'ㅙ': "ㅗㅐ", 'ㅚ': "ㅗㅣ", 'ㅝ': "ㅜㅓ", 'ㅞ': "ㅜㅔ", 'ㅟ': "ㅜㅣ", 'ㅢ': "ㅡㅣ",
}

func isSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

// isConsonant reports whether r is a compatibility consonant jamo (ㄱ..ㅎ)
func isConsonant(r rune) bool {
	return r >= 'ㄱ' && r <= 'ㅎ'
}

// Disassemble expands every Hangul syllable into its compatibility jamo sequence.
// Other runes pass through unchanged, so the mapping works rune by rune and
// Disassemble(a+b) == Disassemble(a)+Disassemble(b).
func Disassemble(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch {
		case isSyllable(r):
			idx := int(r - syllableBase)
			b.WriteRune(initials[idx/syllableBlock])
			b.WriteString(medials[(idx%syllableBlock)/finalCount])
			b.WriteString(finals[idx%finalCount])
		default:
			if split, ok := compoundJamo[r]; ok {
				b.WriteString(split)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Initials replaces every Hangul syllable with its leading consonant
func Initials(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isSyllable(r) {
			b.WriteRune(initials[int(r-syllableBase)/syllableBlock])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsInitialsQuery reports whether s is made only of consonant jamo and spaces
func IsInitialsQuery(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	found := false
	for _, r := range s {
		switch {
		case isConsonant(r):
			found = true
		case r == ' ':
		default:
			return false
		}
	}
	return found
}

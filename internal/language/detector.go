package language

import (
	"unicode"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

// arabicRatioThreshold is the share of letters that must fall in the Arabic
// script before text is tagged Arabic. Mixed legal text quotes English
// article names inside Arabic questions, so the bar sits well below half.
const arabicRatioThreshold = 0.3

// Detect tags text as Arabic or English by script ratio. Digits, punctuation
// and whitespace are ignored; empty or symbol-only text defaults to English.
func Detect(text string) domain.Language {
	var letters, arabic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	if letters == 0 {
		return domain.LanguageEnglish
	}
	if float64(arabic)/float64(letters) >= arabicRatioThreshold {
		return domain.LanguageArabic
	}
	return domain.LanguageEnglish
}

package language

import (
	"testing"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.Language
	}{
		{"english question", "What is the notice period for eviction?", domain.LanguageEnglish},
		{"arabic question", "ما هي مدة الإشعار المطلوبة للإخلاء؟", domain.LanguageArabic},
		{"mixed mostly arabic", "ما هو RERA وما دوره؟", domain.LanguageArabic},
		{"mixed mostly english", "What does Article 25 of Law No. 26 say?", domain.LanguageEnglish},
		{"empty", "", domain.LanguageEnglish},
		{"digits and punctuation only", "123 456 ?!", domain.LanguageEnglish},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text); got != tc.want {
				t.Fatalf("Detect(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

package usecase

import (
	"fmt"
	"strings"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

const (
	// contextChunks bounds how many retrieval results feed the context block
	// and the citation list.
	contextChunks = 3

	// coverageWarnThreshold triggers the low-confidence warning appended to
	// the system instruction.
	coverageWarnThreshold = 0.5

	degradedExcerptLength = 400
	citationExcerptLength = 200
)

const systemPromptEN = `You are LegalEdge, a specialized legal assistant for Dubai real estate and tenancy law.

Rules:
- ONLY answer questions about Dubai real estate, tenancy, and property law. Politely decline other legal areas or jurisdictions.
- Always cite the specific laws, articles, or regulations from the context below.
- Explain complex legal concepts in simple terms.
- If you are not confident, suggest consulting a licensed lawyer in Dubai.
- Never provide specific legal advice, only general legal information, and always include the disclaimer.

DISCLAIMER: This is general legal information only. For advice specific to your situation, consult a licensed lawyer in Dubai.

Context from knowledge base:
%s

Based on this context, provide accurate, cited information.`

const systemPromptAR = `أنت LegalEdge، مساعد قانوني متخصص في قوانين العقارات والإيجارات في دبي.

القواعد:
- أجب فقط على الأسئلة المتعلقة بالعقارات والإيجارات والملكية في دبي، وارفض بأدب المجالات أو الولايات القضائية الأخرى.
- استشهد دائمًا بالقوانين أو المواد أو اللوائح المحددة من السياق أدناه.
- اشرح المفاهيم القانونية المعقدة بعبارات بسيطة.
- إذا لم تكن واثقًا، اقترح استشارة محامٍ مرخص في دبي.
- لا تقدم أبدًا نصيحة قانونية محددة، معلومات قانونية عامة فقط، وقم دائمًا بتضمين إخلاء المسؤولية.

إخلاء المسؤولية: هذه معلومات قانونية عامة فقط. للحصول على مشورة خاصة بحالتك، استشر محاميًا مرخصًا في دبي.

السياق من قاعدة المعرفة:
%s

بناءً على هذا السياق، قدم معلومات دقيقة مع الاستشهادات.`

const lowCoverageWarningEN = "\n\nWarning: limited information available for this question. Recommend consulting a licensed lawyer."

const lowCoverageWarningAR = "\n\nتحذير: المعلومات المتوفرة محدودة لهذا السؤال. يُنصح بالاستشارة مع محامٍ مرخص."

// buildContextBlock concatenates the top results as "[source] text" pairs in
// descending score order.
func buildContextBlock(results []domain.RetrievalResult, max int) string {
	if max > len(results) {
		max = len(results)
	}
	parts := make([]string, 0, max)
	for _, r := range results[:max] {
		parts = append(parts, fmt.Sprintf("[%s] %s", r.Source, r.Text))
	}
	return strings.Join(parts, "\n\n")
}

// systemInstruction selects the language template, binds the context block
// and appends the low-confidence warning when coverage is weak.
func systemInstruction(language domain.Language, contextBlock string, coverage float64) string {
	template := systemPromptEN
	warning := lowCoverageWarningEN
	if language == domain.LanguageArabic {
		template = systemPromptAR
		warning = lowCoverageWarningAR
	}

	instruction := fmt.Sprintf(template, contextBlock)
	if coverage < coverageWarnThreshold {
		instruction += warning
	}
	return instruction
}

// degradedAnswer synthesizes a reduced-capability answer directly from the
// retrieved context when the generator is unavailable.
func degradedAnswer(question string, results []domain.RetrievalResult, language domain.Language) string {
	if len(results) == 0 {
		return noContextMessage(language)
	}

	max := contextChunks
	if max > len(results) {
		max = len(results)
	}

	var b strings.Builder
	if language == domain.LanguageArabic {
		b.WriteString("وضع الخدمة المخفضة - LegalEdge\n\n")
		b.WriteString("سؤالك: " + question + "\n\n")
		b.WriteString("المعلومات القانونية ذات الصلة من قاعدة المعرفة:\n\n")
		for _, r := range results[:max] {
			b.WriteString(fmt.Sprintf("%s (صفحة %s)\n%s\n\n", r.Source, pageLabel(r.Page, language), excerpt(r.Text, degradedExcerptLength)))
		}
		b.WriteString("تنويه قانوني: هذه معلومات عامة فقط. للحصول على استشارة قانونية محددة لحالتك، يرجى التواصل مع محامٍ مرخص في دبي.\n\n")
		b.WriteString("سيتم استعادة الإجابات المدعومة بالذكاء الاصطناعي فور توفر الخدمة.")
		return b.String()
	}

	b.WriteString("REDUCED-CAPABILITY MODE - LegalEdge\n\n")
	b.WriteString("Your question: " + question + "\n\n")
	b.WriteString("Relevant legal information from the knowledge base:\n\n")
	for _, r := range results[:max] {
		b.WriteString(fmt.Sprintf("%s (page %s)\n%s\n\n", r.Source, pageLabel(r.Page, language), excerpt(r.Text, degradedExcerptLength)))
	}
	b.WriteString("Legal disclaimer: this is general information only. For legal advice specific to your situation, please consult a licensed lawyer in Dubai.\n\n")
	b.WriteString("AI-generated answers will be restored as soon as the service is available again.")
	return b.String()
}

func noContextMessage(language domain.Language) string {
	if language == domain.LanguageArabic {
		return "عذراً، لم أجد معلومات ذات صلة في قاعدة البيانات الخاصة بنا حول هذا السؤال."
	}
	return "Sorry, I couldn't find relevant information in our database about this question."
}

func pageLabel(page *int, language domain.Language) string {
	if page == nil {
		if language == domain.LanguageArabic {
			return "غير متوفرة"
		}
		return "N/A"
	}
	return fmt.Sprintf("%d", *page)
}

// excerpt truncates to at most n runes, marking the cut with an ellipsis.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

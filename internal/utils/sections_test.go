package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalclear/legalclear/internal/models"
)

func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		Summary: models.Summary{
			DocumentType:    "Service Agreement",
			MainPurpose:     "Defines consulting services",
			KeyHighlights:   []string{"12 month term", "Monthly retainer"},
			ContractSummary: "A standard consulting arrangement.",
		},
		RiskAssessment: models.RiskAssessment{
			OverallRisk: "medium",
			RiskScore:   61,
			RedRisks: []models.Risk{
				{Type: "Indemnification", Description: "Uncapped liability", Recommendation: "Negotiate a cap"},
			},
		},
		KeyTerms: []models.KeyTerm{
			{Term: "Retainer", Explanation: "Fixed monthly fee"},
		},
	}
}

func TestSectionText(t *testing.T) {
	a := sampleAnalysis()

	summary := SectionText(SectionSummary, a)
	assert.Contains(t, summary, "Service Agreement")
	assert.Contains(t, summary, "12 month term")
	assert.Contains(t, summary, "A standard consulting arrangement.")

	risks := SectionText(SectionRisks, a)
	assert.Contains(t, risks, "Risk Score: 61 out of 100")
	assert.Contains(t, risks, "Uncapped liability")
	assert.Contains(t, risks, "Negotiate a cap")

	terms := SectionText(SectionTerms, a)
	assert.Contains(t, terms, "Retainer")
	assert.Contains(t, terms, "Fixed monthly fee")

	// empty sections still produce a spoken placeholder
	legal := SectionText(SectionLegal, a)
	assert.Contains(t, legal, "No legal references")

	assert.Empty(t, SectionText("not-a-section", a))
	assert.Empty(t, SectionText(SectionSummary, nil))
}

func TestNarratableSections_MatchSectionText(t *testing.T) {
	a := sampleAnalysis()
	for _, s := range NarratableSections() {
		assert.NotEmpty(t, SectionText(s, a), s)
	}
}

func TestTruncateForSpeech(t *testing.T) {
	short := "A short sentence."
	assert.Equal(t, short, TruncateForSpeech(short))
	assert.Equal(t, "trimmed", TruncateForSpeech("  trimmed  "))

	// long text is cut at the last full sentence that fits
	sentence := "This clause describes the obligations of both parties in detail. "
	long := strings.Repeat(sentence, 30)
	got := TruncateForSpeech(long)
	assert.LessOrEqual(t, len(got), MaxSpeechChars)
	assert.True(t, strings.HasSuffix(got, "."))

	// no sentence boundary: hard cut at the limit
	noBoundary := strings.Repeat("x", MaxSpeechChars+100)
	assert.Len(t, TruncateForSpeech(noBoundary), MaxSpeechChars)
}

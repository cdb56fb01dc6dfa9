package utils

import (
	"fmt"
	"strings"

	"github.com/legalclear/legalclear/internal/models"
)

// Narratable report sections, in page order. These double as speech cache
// keys.
const (
	SectionSummary = "summary"
	SectionRisks   = "risks"
	SectionTerms   = "terms"
	SectionLegal   = "legal"
)

func NarratableSections() []string {
	return []string{SectionSummary, SectionRisks, SectionTerms, SectionLegal}
}

// SectionText flattens one report section into narration text for the
// speech pipeline.
func SectionText(section string, a *models.Analysis) string {
	if a == nil {
		return ""
	}
	switch section {
	case SectionSummary:
		return fmt.Sprintf("Document Type: %s. Main Purpose: %s. Key Highlights: %s. Contract Summary: %s",
			a.Summary.DocumentType, a.Summary.MainPurpose,
			strings.Join(a.Summary.KeyHighlights, ". "), a.Summary.ContractSummary)

	case SectionRisks:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Overall Risk: %s. Risk Score: %d out of 100.",
			a.RiskAssessment.OverallRisk, a.RiskAssessment.RiskScore)
		for _, bucket := range [][]models.Risk{a.RiskAssessment.RedRisks, a.RiskAssessment.YellowRisks, a.RiskAssessment.GreenRisks} {
			for _, r := range bucket {
				fmt.Fprintf(&sb, " %s. %s. Recommendation: %s.", r.Type, r.Description, r.Recommendation)
			}
		}
		return sb.String()

	case SectionTerms:
		if len(a.KeyTerms) == 0 {
			return "Key Terms Section. No key terms identified."
		}
		parts := make([]string, 0, len(a.KeyTerms))
		for _, t := range a.KeyTerms {
			parts = append(parts, fmt.Sprintf("%s. %s", t.Term, t.Explanation))
		}
		return "Key Terms Section. " + strings.Join(parts, ". ")

	case SectionLegal:
		if len(a.LegalReferences) == 0 {
			return "Legal References Section. No legal references found in this document."
		}
		var sb strings.Builder
		sb.WriteString("Legal References Section.")
		for i, ref := range a.LegalReferences {
			fmt.Fprintf(&sb, " Legal Reference %d: %s. Context: %s. Explanation: %s. Relevance: %s.",
				i+1, ref.Reference, ref.Context, ref.ShortExplanation, ref.Relevance)
		}
		return sb.String()

	default:
		return ""
	}
}

// MaxSpeechChars is the per-request limit of the speech synthesis API.
const MaxSpeechChars = 900

// TruncateForSpeech trims text to the synthesis limit, preferring to cut at
// the last sentence boundary that still fits.
func TruncateForSpeech(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= MaxSpeechChars {
		return text
	}
	cut := text[:MaxSpeechChars]
	if i := strings.LastIndex(cut, ". "); i > MaxSpeechChars/2 {
		return cut[:i+1]
	}
	return cut
}

// Package classifier assigns a document type from filename and content
// keywords. It is the deterministic classification path: no model calls.
package classifier

import (
	"fmt"
	"strings"

	"github.com/healthpay/claimcheck/internal/model"
)

// Result is one classification outcome with its supporting evidence.
type Result struct {
	Type       model.DocumentType `json:"document_type"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
}

// filenameKeywords maps filename fragments to document types. Entries are
// checked in order so the more specific types win over generic ones.
var filenameKeywords = []struct {
	typ      model.DocumentType
	keywords []string
}{
	{model.DocDischargeSummary, []string{"discharge", "summary", "admission"}},
	{model.DocBill, []string{"bill", "invoice", "receipt", "payment", "billing", "charges"}},
	{model.DocIDCard, []string{"id", "card", "insurance", "member"}},
	{model.DocPrescription, []string{"prescription", "rx", "medication"}},
	{model.DocLabReport, []string{"lab", "test", "results", "pathology"}},
}

type indicator struct {
	phrase string
	weight int
}

// billIndicators and dischargeIndicators score content previews. The two
// scores are compared because scanned claim files often mix both documents.
var billIndicators = []indicator{
	{"total amount", 3}, {"bill of supply", 3}, {"surgery package", 3},
	{"invoice", 2}, {"gst", 2}, {"net amount", 2}, {"net payable", 2},
	{"doctor fees", 2}, {"medical appliances", 2}, {"cost of implants", 2},
	{"₹", 2}, {"charges", 1}, {"rs.", 1}, {"patient diet", 1},
}

var dischargeIndicators = []indicator{
	{"discharge summary", 4},
	{"diagnosis", 3}, {"history of present illness", 3}, {"recommendations at discharge", 3},
	{"admission", 2}, {"chief complaint", 2}, {"surgery", 2},
	{"patient was admitted", 2}, {"chief consultants", 2}, {"physical examination", 2},
}

// ClassifyFilename classifies on filename keywords alone.
func ClassifyFilename(filename string) Result {
	lower := strings.ToLower(filename)
	for _, entry := range filenameKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return Result{
					Type:       entry.typ,
					Confidence: 0.8,
					Reasoning:  fmt.Sprintf("filename contains keyword %q", kw),
				}
			}
		}
	}
	return Result{
		Type:       model.DocOther,
		Confidence: 0.3,
		Reasoning:  "no filename patterns matched",
	}
}

// ClassifyContent classifies on content-preview indicator scores.
func ClassifyContent(content string) Result {
	lower := strings.ToLower(content)

	billScore := scoreIndicators(lower, billIndicators)
	dischargeScore := scoreIndicators(lower, dischargeIndicators)

	switch {
	case billScore >= 5 && billScore > dischargeScore:
		return Result{
			Type:       model.DocBill,
			Confidence: capConfidence(0.7 + float64(billScore)*0.05),
			Reasoning:  fmt.Sprintf("strong billing indicators (score %d)", billScore),
		}
	case dischargeScore >= 5 && dischargeScore > billScore:
		return Result{
			Type:       model.DocDischargeSummary,
			Confidence: capConfidence(0.7 + float64(dischargeScore)*0.05),
			Reasoning:  fmt.Sprintf("strong discharge summary indicators (score %d)", dischargeScore),
		}
	case billScore >= 3 || dischargeScore >= 3:
		// Mixed document: classify as the stronger side.
		if billScore >= dischargeScore {
			return Result{
				Type:       model.DocBill,
				Confidence: 0.75,
				Reasoning:  fmt.Sprintf("mixed document, stronger bill indicators (%d vs %d)", billScore, dischargeScore),
			}
		}
		return Result{
			Type:       model.DocDischargeSummary,
			Confidence: 0.75,
			Reasoning:  fmt.Sprintf("mixed document, stronger discharge indicators (%d vs %d)", dischargeScore, billScore),
		}
	default:
		return Result{
			Type:       model.DocOther,
			Confidence: 0.3,
			Reasoning:  fmt.Sprintf("insufficient content indicators (bill %d, discharge %d)", billScore, dischargeScore),
		}
	}
}

// Classify combines filename and content classification, keeping whichever
// produced the higher confidence.
func Classify(filename, contentPreview string) Result {
	best := ClassifyFilename(filename)
	if contentPreview != "" {
		if byContent := ClassifyContent(contentPreview); byContent.Confidence > best.Confidence {
			best = byContent
		}
	}
	return best
}

func scoreIndicators(content string, indicators []indicator) int {
	score := 0
	for _, ind := range indicators {
		if strings.Contains(content, ind.phrase) {
			score += ind.weight
		}
	}
	return score
}

func capConfidence(c float64) float64 {
	if c > 0.95 {
		return 0.95
	}
	return c
}

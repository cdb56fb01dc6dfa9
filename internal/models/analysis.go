package models

import "time"

// AnalysisResult is the envelope stored under the "analysisResults" key:
// the normalized report plus the text it was produced from.
type AnalysisResult struct {
	Analysis     Analysis `json:"analysis"`
	Metadata     Metadata `json:"metadata"`
	OriginalText string   `json:"originalText,omitempty"`

	// Set when the result was opened from a saved record rather than a
	// fresh analysis run.
	LoadedFromSave bool       `json:"isLoadedFromSave,omitempty"`
	SavedSerial    int64      `json:"savedSerial,omitempty"`
	SavedAt        *time.Time `json:"savedAt,omitempty"`
}

// Analysis is the normalized report for one document. After normalization
// every slice below is non-nil, even when the backend omitted the field.
type Analysis struct {
	Summary            Summary          `json:"summary"`
	RiskAssessment     RiskAssessment   `json:"riskAssessment"`
	KeyTerms           []KeyTerm        `json:"keyTerms"`
	VagueTerms         []VagueTerm      `json:"vagueTerms"`
	LegalReferences    []LegalReference `json:"legalReferences"`
	Recommendations    []string         `json:"recommendations"`
	RedFlags           []string         `json:"redFlags"`
	SuggestedQuestions []SuggestedQA    `json:"suggestedQuestions"`
	FlowchartData      Flowchart        `json:"flowchartData"`
}

type Summary struct {
	DocumentType    string   `json:"documentType"`
	MainPurpose     string   `json:"mainPurpose"`
	KeyHighlights   []string `json:"keyHighlights"`
	ContractSummary string   `json:"contractSummary"`
	WordCount       int      `json:"wordCount"`
}

// RiskAssessment uses the categorized shape: risks are bucketed by severity
// and the score is a 0-100 safety scale (higher is safer).
type RiskAssessment struct {
	OverallRisk string `json:"overallRisk"` // low|medium|high
	RiskScore   int    `json:"riskScore"`   // 0-100
	GreenRisks  []Risk `json:"greenRisks"`
	YellowRisks []Risk `json:"yellowRisks"`
	RedRisks    []Risk `json:"redRisks"`
}

type Risk struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

type KeyTerm struct {
	Term        string `json:"term"`
	Category    string `json:"category"`
	Importance  string `json:"importance"`
	Explanation string `json:"explanation"`
}

type VagueTerm struct {
	Term          string `json:"term"`
	Concern       string `json:"concern"`
	Clarification string `json:"clarification"`
}

type LegalReference struct {
	Reference        string `json:"reference"`
	Context          string `json:"context"`
	ShortExplanation string `json:"shortExplanation"`
	Relevance        string `json:"relevance"`
}

type SuggestedQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type Flowchart struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

type FlowNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"` // start|party|process|decision|end
}

type FlowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

type Metadata struct {
	AnalysisID string    `json:"analysisId"`
	Model      string    `json:"model"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	Parties    []string  `json:"parties"`
}

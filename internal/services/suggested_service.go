package services

import (
	"fmt"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/utils"
)

// SuggestedQAService is a read-only view over the precomputed
// question/answer pairs in the analysis. It never mutates the list.
type SuggestedQAService interface {
	// Select returns the pair at index plus the speech cache key for its
	// "listen" action.
	Select(a *models.Analysis, index int) (*models.SuggestedQA, string, error)
	List(a *models.Analysis) []models.SuggestedQA
}

type suggestedQAService struct{}

func NewSuggestedQAService() SuggestedQAService {
	return suggestedQAService{}
}

func (suggestedQAService) Select(a *models.Analysis, index int) (*models.SuggestedQA, string, error) {
	const op = "SuggestedQAService.Select"

	if a == nil || index < 0 || index >= len(a.SuggestedQuestions) {
		return nil, "", utils.E(utils.CodeNotFound, op, "suggested question not found", nil)
	}
	qa := a.SuggestedQuestions[index]
	return &qa, fmt.Sprintf("question-%d", index), nil
}

func (suggestedQAService) List(a *models.Analysis) []models.SuggestedQA {
	if a == nil || a.SuggestedQuestions == nil {
		return []models.SuggestedQA{}
	}
	return a.SuggestedQuestions
}

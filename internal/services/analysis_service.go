package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/legalclear/legalclear/internal/models"
	mongorepo "github.com/legalclear/legalclear/internal/repositories/mongo"
	pgrepo "github.com/legalclear/legalclear/internal/repositories/postgres"
	"github.com/legalclear/legalclear/internal/storage"
	"github.com/legalclear/legalclear/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UploadPath is where the client is sent when no usable analysis exists.
const UploadPath = "/docupload"

type AnalysisService interface {
	// Normalize validates a raw backend payload and fills every nested
	// field with a default so nothing downstream sees a nil collection.
	Normalize(raw []byte) (*models.AnalysisResult, error)

	// Submit normalizes and persists a fresh analysis payload.
	Submit(ctx context.Context, userID string, raw []byte) (*models.AnalysisResult, error)

	// Load returns the active analysis or a fatal redirect error.
	Load(ctx context.Context, userID string) (*models.AnalysisResult, error)

	// StartNewAnalysis wipes the analysis, chat, and audio-cache state.
	StartNewAnalysis(ctx context.Context, userID string) error

	SaveRecord(ctx context.Context, userID string) (*models.SavedRecord, error)
	ListRecords(ctx context.Context, userID string, limit int) ([]models.SavedRecord, error)
	OpenRecord(ctx context.Context, userID string, serial int64) (*models.AnalysisResult, error)
	DeleteRecord(ctx context.Context, userID string, serial int64) error
}

type analysisService struct {
	store   storage.SessionStore
	records pgrepo.SavedRecordRepo
	audio   mongorepo.AudioCacheRepository
	log     *logrus.Logger
}

func NewAnalysisService(store storage.SessionStore, records pgrepo.SavedRecordRepo, audio mongorepo.AudioCacheRepository, log *logrus.Logger) AnalysisService {
	if log == nil {
		log = logrus.New()
	}
	return &analysisService{store: store, records: records, audio: audio, log: log}
}

// rawEnvelope distinguishes "analysis key absent" (fatal) from "nested
// field absent" (defaulted).
type rawEnvelope struct {
	Analysis     *models.Analysis `json:"analysis"`
	Metadata     models.Metadata  `json:"metadata"`
	OriginalText string           `json:"originalText"`
}

func (s *analysisService) Normalize(raw []byte) (*models.AnalysisResult, error) {
	const op = "AnalysisService.Normalize"

	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, utils.ERedirect(utils.CodeInvalidArgument, op, "malformed analysis payload", UploadPath, err)
	}
	if env.Analysis == nil {
		return nil, utils.ERedirect(utils.CodeInvalidArgument, op, "payload has no analysis object", UploadPath, nil)
	}

	res := &models.AnalysisResult{
		Analysis:     *env.Analysis,
		Metadata:     env.Metadata,
		OriginalText: env.OriginalText,
	}
	normalizeAnalysis(&res.Analysis)
	normalizeMetadata(&res.Metadata)
	return res, nil
}

func normalizeAnalysis(a *models.Analysis) {
	if a.Summary.KeyHighlights == nil {
		a.Summary.KeyHighlights = []string{}
	}
	if a.RiskAssessment.GreenRisks == nil {
		a.RiskAssessment.GreenRisks = []models.Risk{}
	}
	if a.RiskAssessment.YellowRisks == nil {
		a.RiskAssessment.YellowRisks = []models.Risk{}
	}
	if a.RiskAssessment.RedRisks == nil {
		a.RiskAssessment.RedRisks = []models.Risk{}
	}
	if a.KeyTerms == nil {
		a.KeyTerms = []models.KeyTerm{}
	}
	if a.VagueTerms == nil {
		a.VagueTerms = []models.VagueTerm{}
	}
	if a.LegalReferences == nil {
		a.LegalReferences = []models.LegalReference{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}
	if a.SuggestedQuestions == nil {
		a.SuggestedQuestions = []models.SuggestedQA{}
	}
	if a.FlowchartData.Nodes == nil {
		a.FlowchartData.Nodes = []models.FlowNode{}
	}
	if a.FlowchartData.Edges == nil {
		a.FlowchartData.Edges = []models.FlowEdge{}
	}
}

func normalizeMetadata(m *models.Metadata) {
	if m.AnalysisID == "" {
		m.AnalysisID = uuid.NewString()
	}
	if m.AnalyzedAt.IsZero() {
		m.AnalyzedAt = time.Now().UTC()
	}
	if m.Parties == nil {
		m.Parties = []string{}
	}
}

func (s *analysisService) Submit(ctx context.Context, userID string, raw []byte) (*models.AnalysisResult, error) {
	const op = "AnalysisService.Submit"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	res, err := s.Normalize(raw)
	if err != nil {
		// a corrupt submission must not leave partial state behind
		_ = s.store.ClearAnalysis(ctx, userID)
		return nil, err
	}

	if err := s.store.SetAnalysis(ctx, userID, res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store analysis", err)
	}
	return res, nil
}

func (s *analysisService) Load(ctx context.Context, userID string) (*models.AnalysisResult, error) {
	const op = "AnalysisService.Load"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	res, hit, err := s.store.GetAnalysis(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read analysis", err)
	}
	if !hit {
		// no partial render: clear leftovers and send the user back
		_ = s.store.ClearAnalysis(ctx, userID)
		_ = s.store.ClearChat(ctx, userID)
		return nil, utils.ERedirect(utils.CodeNotFound, op, "no analysis results", UploadPath, nil)
	}

	normalizeAnalysis(&res.Analysis)
	normalizeMetadata(&res.Metadata)
	return res, nil
}

func (s *analysisService) StartNewAnalysis(ctx context.Context, userID string) error {
	const op = "AnalysisService.StartNewAnalysis"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if err := s.store.ClearAnalysis(ctx, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear analysis", err)
	}
	if err := s.store.ClearChat(ctx, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear chat state", err)
	}
	if s.audio != nil {
		if err := s.audio.Clear(ctx, userID); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to clear audio cache", err)
		}
	}
	return nil
}

func (s *analysisService) SaveRecord(ctx context.Context, userID string) (*models.SavedRecord, error) {
	const op = "AnalysisService.SaveRecord"

	res, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.store.GetChatSessions(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read chat sessions", err)
	}
	counter, err := s.store.GetChatCounter(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read chat counter", err)
	}

	data, err := json.Marshal(models.SavedRecordData{
		Analysis:     res.Analysis,
		Metadata:     res.Metadata,
		OriginalText: res.OriginalText,
		ChatSessions: sessions,
		ChatCounter:  counter,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode record", err)
	}

	rec := &models.SavedRecord{
		UserID:    userID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save record", err)
	}
	return rec, nil
}

func (s *analysisService) ListRecords(ctx context.Context, userID string, limit int) ([]models.SavedRecord, error) {
	const op = "AnalysisService.ListRecords"

	rows, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list records", err)
	}
	return rows, nil
}

// OpenRecord loads a saved analysis and restores the chat sessions and
// counter captured with it, replacing whatever session state was active.
func (s *analysisService) OpenRecord(ctx context.Context, userID string, serial int64) (*models.AnalysisResult, error) {
	const op = "AnalysisService.OpenRecord"

	rec, err := s.records.GetBySerial(ctx, userID, serial)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "record not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to fetch record", err)
	}

	var data models.SavedRecordData
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "corrupt saved record", err)
	}

	savedAt := rec.CreatedAt
	res := &models.AnalysisResult{
		Analysis:       data.Analysis,
		Metadata:       data.Metadata,
		OriginalText:   data.OriginalText,
		LoadedFromSave: true,
		SavedSerial:    rec.Serial,
		SavedAt:        &savedAt,
	}
	normalizeAnalysis(&res.Analysis)
	normalizeMetadata(&res.Metadata)

	if err := s.store.ClearChat(ctx, userID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reset chat state", err)
	}
	if len(data.ChatSessions) > 0 {
		if err := s.store.SetChatSessions(ctx, userID, data.ChatSessions); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to restore chat sessions", err)
		}
	}
	if data.ChatCounter > 0 {
		if err := s.store.SetChatCounter(ctx, userID, data.ChatCounter); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to restore chat counter", err)
		}
	}

	if err := s.store.SetAnalysis(ctx, userID, res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store analysis", err)
	}
	return res, nil
}

func (s *analysisService) DeleteRecord(ctx context.Context, userID string, serial int64) error {
	const op = "AnalysisService.DeleteRecord"

	if err := s.records.Delete(ctx, userID, serial); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "record not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete record", err)
	}
	return nil
}

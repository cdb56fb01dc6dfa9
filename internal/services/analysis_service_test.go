package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/utils"
)

func newAnalysisFixture() (AnalysisService, *fakeStore, *fakeRecords, *fakeAudioCache) {
	store := newFakeStore()
	records := &fakeRecords{}
	audio := newFakeAudioCache()
	return NewAnalysisService(store, records, audio, nil), store, records, audio
}

const minimalPayload = `{
	"analysis": {
		"summary": {"documentType": "Employment Contract", "mainPurpose": "Defines employment terms"},
		"riskAssessment": {"overallRisk": "low", "riskScore": 82}
	},
	"originalText": "The parties agree as follows."
}`

func TestNormalize_FillsEveryCollection(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()

	res, err := svc.Normalize([]byte(minimalPayload))
	require.NoError(t, err)

	a := res.Analysis
	assert.NotNil(t, a.Summary.KeyHighlights)
	assert.NotNil(t, a.RiskAssessment.GreenRisks)
	assert.NotNil(t, a.RiskAssessment.YellowRisks)
	assert.NotNil(t, a.RiskAssessment.RedRisks)
	assert.NotNil(t, a.KeyTerms)
	assert.NotNil(t, a.VagueTerms)
	assert.NotNil(t, a.LegalReferences)
	assert.NotNil(t, a.Recommendations)
	assert.NotNil(t, a.RedFlags)
	assert.NotNil(t, a.SuggestedQuestions)
	assert.NotNil(t, a.FlowchartData.Nodes)
	assert.NotNil(t, a.FlowchartData.Edges)

	assert.NotEmpty(t, res.Metadata.AnalysisID)
	assert.False(t, res.Metadata.AnalyzedAt.IsZero())
	assert.NotNil(t, res.Metadata.Parties)
	assert.Equal(t, 82, a.RiskAssessment.RiskScore)
}

func TestNormalize_MissingAnalysisIsFatal(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()

	for _, raw := range []string{`{}`, `{"metadata":{}}`, `not json`} {
		_, err := svc.Normalize([]byte(raw))
		require.Error(t, err, raw)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), raw)
		assert.Equal(t, UploadPath, utils.RedirectOf(err), raw)
	}
}

func TestSubmitThenLoad_RoundTrip(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, testUser, []byte(minimalPayload))
	require.NoError(t, err)

	loaded, err := svc.Load(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, submitted.Metadata.AnalysisID, loaded.Metadata.AnalysisID)
	assert.Equal(t, "Employment Contract", loaded.Analysis.Summary.DocumentType)
	assert.Equal(t, "The parties agree as follows.", loaded.OriginalText)
	assert.NotNil(t, loaded.Analysis.SuggestedQuestions)
}

func TestLoad_NoAnalysisRedirects(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()

	_, err := svc.Load(context.Background(), testUser)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Equal(t, UploadPath, utils.RedirectOf(err))
}

func TestStartNewAnalysis_ClearsAllState(t *testing.T) {
	svc, store, _, audio := newAnalysisFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, testUser, []byte(minimalPayload))
	require.NoError(t, err)
	require.NoError(t, store.SetChatSessions(ctx, testUser, []models.ChatSession{{ID: 1}}))
	require.NoError(t, store.SetChatCounter(ctx, testUser, 4))
	require.NoError(t, audio.Put(ctx, &models.AudioCacheEntry{UserID: testUser, CacheKey: "summary", Audio: []byte{1}}))

	require.NoError(t, svc.StartNewAnalysis(ctx, testUser))

	_, err = svc.Load(ctx, testUser)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	sessions, err := store.GetChatSessions(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	counter, err := store.GetChatCounter(ctx, testUser)
	require.NoError(t, err)
	assert.Zero(t, counter)
	assert.Zero(t, audio.len())
}

func TestSaveAndOpenRecord_RestoresWorkingState(t *testing.T) {
	svc, store, _, _ := newAnalysisFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, testUser, []byte(minimalPayload))
	require.NoError(t, err)
	require.NoError(t, store.SetChatSessions(ctx, testUser, []models.ChatSession{
		{ID: 1, Title: "earlier chat", Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "q"}}},
	}))
	require.NoError(t, store.SetChatCounter(ctx, testUser, 1))

	rec, err := svc.SaveRecord(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Serial)

	// wipe everything, then restore from the record
	require.NoError(t, svc.StartNewAnalysis(ctx, testUser))

	res, err := svc.OpenRecord(ctx, testUser, rec.Serial)
	require.NoError(t, err)
	assert.True(t, res.LoadedFromSave)
	assert.Equal(t, rec.Serial, res.SavedSerial)
	require.NotNil(t, res.SavedAt)
	assert.Equal(t, "Employment Contract", res.Analysis.Summary.DocumentType)

	sessions, err := store.GetChatSessions(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "earlier chat", sessions[0].Title)

	counter, err := store.GetChatCounter(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counter)

	// and the restored analysis is the active one again
	loaded, err := svc.Load(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, loaded.LoadedFromSave)
}

func TestOpenRecord_NotFound(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()

	_, err := svc.OpenRecord(context.Background(), testUser, 42)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestDeleteRecord(t *testing.T) {
	svc, _, _, _ := newAnalysisFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, testUser, []byte(minimalPayload))
	require.NoError(t, err)
	rec, err := svc.SaveRecord(ctx, testUser)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, testUser, rec.Serial))

	rows, err := svc.ListRecords(ctx, testUser, 50)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = svc.DeleteRecord(ctx, testUser, rec.Serial)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

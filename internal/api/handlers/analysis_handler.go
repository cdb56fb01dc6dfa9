package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/utils"
)

// NarrationQueue schedules background narration pre-generation. Optional;
// when nil the first "listen" click pays the synthesis cost instead.
type NarrationQueue interface {
	Enqueue(ctx context.Context, userID string, sections []string) error
}

type AnalysisHandler struct {
	svc       services.AnalysisService
	suggested services.SuggestedQAService
	narration NarrationQueue
}

func NewAnalysisHandler(svc services.AnalysisService, suggested services.SuggestedQAService, narration NarrationQueue) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, suggested: suggested, narration: narration}
}

// Submit stores a fresh analysis payload for the user. The body is the raw
// backend envelope; normalization fills whatever the analyzer left out.
func (h *AnalysisHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.Submit", "failed to read request body", err))
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), userID, raw)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.narration != nil {
		// prefetch is best-effort; narration still works on demand
		_ = h.narration.Enqueue(c.Request.Context(), userID, utils.NarratableSections())
	}

	c.JSON(http.StatusOK, res)
}

// Get returns the active analysis, or a redirect error when none exists.
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.svc.Load(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) StartNew(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.StartNewAnalysis(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared", "redirect": services.UploadPath})
}

func (h *AnalysisHandler) SaveRecord(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.svc.SaveRecord(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *AnalysisHandler) ListRecords(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	rows, err := h.svc.ListRecords(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": rows})
}

// OpenRecord restores a saved analysis, including the chat sessions captured
// with it, then returns the restored result.
func (h *AnalysisHandler) OpenRecord(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	serial, err := strconv.ParseInt(c.Param("serial"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.OpenRecord", "invalid record serial", err))
		return
	}

	res, err := h.svc.OpenRecord(c.Request.Context(), userID, serial)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.narration != nil {
		_ = h.narration.Enqueue(c.Request.Context(), userID, utils.NarratableSections())
	}

	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) DeleteRecord(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	serial, err := strconv.ParseInt(c.Param("serial"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.DeleteRecord", "invalid record serial", err))
		return
	}

	if err := h.svc.DeleteRecord(c.Request.Context(), userID, serial); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListSuggested returns the precomputed question/answer pairs of the active
// analysis.
func (h *AnalysisHandler) ListSuggested(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.svc.Load(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": h.suggested.List(&res.Analysis)})
}

func (h *AnalysisHandler) GetSuggested(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.GetSuggested", "invalid question index", err))
		return
	}

	res, err := h.svc.Load(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	qa, speechKey, err := h.suggested.Select(&res.Analysis, index)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question":  qa,
		"speechKey": speechKey,
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type StartChatRequest struct {
	InitialQuestion string `json:"initialQuestion"`
}

func (h *ChatHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Start", "invalid request body", err))
		return
	}

	sess, err := h.svc.StartNewChat(c.Request.Context(), userID, req.InitialQuestion)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// AskQuestionRequest mirrors the payload the analysis page sends. Only the
// question is consulted here; grounding context is read from the stored
// analysis, not trusted from the client.
type AskQuestionRequest struct {
	Question            string               `json:"question" binding:"required"`
	AnalysisID          string               `json:"analysisId"`
	Context             string               `json:"context"`
	OriginalText        string               `json:"originalText"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory"`
}

type AskQuestionResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ask answers a question inside the active session, starting one implicitly
// when none is open.
func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AskQuestionResponse{Success: false, Error: "question is required"})
		return
	}

	if _, active := h.svc.Active(userID); !active {
		if _, err := h.svc.StartNewChat(c.Request.Context(), userID, ""); err != nil {
			writeError(c, err)
			return
		}
	}

	_, answer, err := h.svc.SubmitQuestion(c.Request.Context(), userID, req.Question)
	if err != nil {
		status := utils.HTTPStatus(err)
		msg := "failed to get an answer, please try again"
		var ae *utils.AppError
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		c.JSON(status, AskQuestionResponse{Success: false, Error: msg})
		return
	}

	c.JSON(http.StatusOK, AskQuestionResponse{Success: true, Answer: answer})
}

func (h *ChatHandler) Close(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.CloseActiveSession(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (h *ChatHandler) Active(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, active := h.svc.Active(userID)
	if !active {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "session": sess})
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessions, err := h.svc.History(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *ChatHandler) Open(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Open", "invalid session id", err))
		return
	}

	sess, err := h.svc.OpenFromHistory(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Delete", "invalid session id", err))
		return
	}

	if err := h.svc.DeleteFromHistory(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

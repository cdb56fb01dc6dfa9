package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/legalclear/legalclear/internal/providers/tts"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/utils"
)

type SpeechHandler struct {
	manager   *services.SpeechManager
	tts       tts.Provider
	analysis  services.AnalysisService
	suggested services.SuggestedQAService
}

func NewSpeechHandler(manager *services.SpeechManager, provider tts.Provider, analysis services.AnalysisService, suggested services.SuggestedQAService) *SpeechHandler {
	return &SpeechHandler{manager: manager, tts: provider, analysis: analysis, suggested: suggested}
}

type TextToSpeechRequest struct {
	Text        string `json:"text" binding:"required"`
	VoiceName   string `json:"voiceName"`
	StylePrompt string `json:"stylePrompt"`
}

type TextToSpeechResponse struct {
	Success    bool   `json:"success"`
	AudioData  string `json:"audioData,omitempty"` // base64 raw PCM
	SampleRate int    `json:"sampleRate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TextToSpeech synthesizes arbitrary text, bypassing the cache and the
// playback controller. Used by the interface for one-off utterances.
func (h *SpeechHandler) TextToSpeech(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req TextToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, TextToSpeechResponse{Success: false, Error: "text is required"})
		return
	}
	if len(req.Text) > utils.MaxSpeechChars {
		c.JSON(http.StatusBadRequest, TextToSpeechResponse{
			Success: false,
			Error:   fmt.Sprintf("text exceeds %d characters", utils.MaxSpeechChars),
		})
		return
	}

	pcm, rate, err := h.tts.Synthesize(c.Request.Context(), req.Text, req.VoiceName, req.StylePrompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, TextToSpeechResponse{Success: false, Error: "speech generation failed"})
		return
	}

	c.JSON(http.StatusOK, TextToSpeechResponse{
		Success:    true,
		AudioData:  base64.StdEncoding.EncodeToString(pcm),
		SampleRate: rate,
	})
}

type SpeakRequest struct {
	Key  string `json:"key" binding:"required"`
	Text string `json:"text"` // optional; resolved from the analysis when empty
}

type SpeakResponse struct {
	Speaking  bool   `json:"speaking"`
	Key       string `json:"key"`
	MimeType  string `json:"mimeType,omitempty"`
	ClipURL   string `json:"clipUrl,omitempty"`
	AudioData string `json:"audioData,omitempty"` // base64 WAV
}

// Speak toggles narration for a section or suggested answer. Speaking a key
// that is already playing stops it; speaking a new key replaces whatever was
// playing.
func (h *SpeechHandler) Speak(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.Speak", "key is required", err))
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		resolved, err := h.resolveText(c, userID, req.Key)
		if err != nil {
			writeError(c, err)
			return
		}
		text = resolved
	}

	clip, err := h.manager.ControllerFor(userID).Speak(c.Request.Context(), text, req.Key)
	if err != nil {
		writeError(c, err)
		return
	}
	if clip == nil {
		// toggled off, or superseded by a newer request
		c.JSON(http.StatusOK, SpeakResponse{Speaking: false, Key: req.Key})
		return
	}

	c.JSON(http.StatusOK, SpeakResponse{
		Speaking:  true,
		Key:       req.Key,
		MimeType:  clip.MimeType,
		ClipURL:   clip.URL,
		AudioData: base64.StdEncoding.EncodeToString(clip.Data),
	})
}

func (h *SpeechHandler) Stop(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.manager.ControllerFor(userID).Stop(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *SpeechHandler) Status(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"speakingKey": h.manager.ControllerFor(userID).SpeakingKey()})
}

// resolveText maps a speech key to the text it narrates: a report section,
// or a suggested answer keyed "question-<index>".
func (h *SpeechHandler) resolveText(c *gin.Context, userID, key string) (string, error) {
	const op = "SpeechHandler.Speak"

	res, err := h.analysis.Load(c.Request.Context(), userID)
	if err != nil {
		return "", err
	}

	if idx, ok := strings.CutPrefix(key, "question-"); ok {
		n, convErr := strconv.Atoi(idx)
		if convErr != nil {
			return "", utils.E(utils.CodeInvalidArgument, op, "invalid speech key", convErr)
		}
		qa, _, selErr := h.suggested.Select(&res.Analysis, n)
		if selErr != nil {
			return "", selErr
		}
		return qa.Answer, nil
	}

	if text := utils.SectionText(key, &res.Analysis); text != "" {
		return text, nil
	}
	return "", utils.E(utils.CodeNotFound, op, "nothing to narrate for this key", nil)
}

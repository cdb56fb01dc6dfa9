package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/legalclear/legalclear/internal/api/handlers"
	"github.com/legalclear/legalclear/internal/api/middleware"
)

type Deps struct {
	Analysis *handlers.AnalysisHandler
	Chat     *handlers.ChatHandler
	Speech   *handlers.SpeechHandler
	WS       *handlers.SpeechWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/analysis", d.Analysis.Submit)
	auth.GET("/analysis", d.Analysis.Get)
	auth.POST("/analysis/new", d.Analysis.StartNew)

	auth.GET("/analysis/suggested", d.Analysis.ListSuggested)
	auth.GET("/analysis/suggested/:index", d.Analysis.GetSuggested)

	auth.POST("/records", d.Analysis.SaveRecord)
	auth.GET("/records", d.Analysis.ListRecords)
	auth.POST("/records/:serial/open", d.Analysis.OpenRecord)
	auth.DELETE("/records/:serial", d.Analysis.DeleteRecord)

	auth.POST("/chat/start", d.Chat.Start)
	auth.POST("/chat/close", d.Chat.Close)
	auth.GET("/chat/active", d.Chat.Active)
	auth.GET("/chat/history", d.Chat.History)
	auth.POST("/chat/history/:id/open", d.Chat.Open)
	auth.DELETE("/chat/history/:id", d.Chat.Delete)

	auth.POST("/speech/speak", d.Speech.Speak)
	auth.POST("/speech/stop", d.Speech.Stop)
	auth.GET("/speech/status", d.Speech.Status)

	// Compatibility paths kept from the original web client
	auth.POST("/api/ask-question", d.Chat.Ask)
	auth.POST("/api/text-to-speech", d.Speech.TextToSpeech)

	// WebSocket
	auth.GET("/ws/speech", d.WS.SpeechWS)
}

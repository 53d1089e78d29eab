// Package api — configuration endpoints.
package api

import (
	"net/http"

	"github.com/arthastra/arthastra/internal/config"
)

// ConfigView is the sanitized configuration returned by GET /api/v1/config.
// API keys never appear here; clients check key status via /config/keys.
type ConfigView struct {
	Model          string   `json:"model"`
	FallbackModels []string `json:"fallbackModels"`
	Temperature    float64  `json:"temperature"`
	MaxTokens      int      `json:"maxTokens"`
	StageDelayMS   int      `json:"stageDelayMs"`
	NewsSources    int      `json:"newsSources"`
	NewsCacheTTL   int      `json:"newsCacheTtlSec"`
}

// handleGetConfig returns the current (running) configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigView{
			Model:          s.cfg.LLM.Model,
			FallbackModels: s.cfg.LLM.FallbackModels,
			Temperature:    s.cfg.LLM.Temperature,
			MaxTokens:      s.cfg.LLM.MaxTokens,
			StageDelayMS:   s.cfg.Pipeline.StageDelayMS,
			NewsSources:    len(s.news.Sources()),
			NewsCacheTTL:   s.cfg.News.CacheTTL,
		},
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	keys := config.CheckAPIKeys(s.cfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    keys,
	})
}

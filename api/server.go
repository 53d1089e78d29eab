// Package api provides the HTTP REST API server for ArthAstra.
//
// It exposes the agent pipelines (rejection recovery, financial council,
// eligibility insights, loan recommendations), the conversational advisor,
// lending news, and WebSocket streaming of pipeline progress events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arthastra/arthastra/internal/agent"
	"github.com/arthastra/arthastra/internal/config"
	"github.com/arthastra/arthastra/internal/datasource"
	"github.com/arthastra/arthastra/internal/llm"
	"github.com/arthastra/arthastra/pkg/models"
	"github.com/arthastra/arthastra/pkg/utils"
)

// Version is set by the CLI at startup (build-time ldflags).
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	gw     *llm.Gateway
	news   *datasource.News
	wsHub  *WSHub

	// pipelineOpts are applied to every pipeline run: pacing from config
	// plus the WebSocket hub as event sink.
	pipelineOpts []agent.PipelineOption
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	gw, err := llm.NewGatewayFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	news := datasource.NewNews(
		datasource.WithCacheTTL(time.Duration(cfg.News.CacheTTL)*time.Second),
		datasource.WithRateLimit(cfg.News.RateLimitPerMin, time.Minute),
	)

	srv := &Server{
		cfg:   cfg,
		gw:    gw,
		news:  news,
		wsHub: NewWSHub(),
	}

	srv.pipelineOpts = []agent.PipelineOption{
		agent.WithStageDelay(time.Duration(cfg.Pipeline.StageDelayMS) * time.Millisecond),
		agent.WithEventSink(srv.wsHub),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Agent pipelines
		r.Post("/pipelines/recovery", s.handleRecovery)
		r.Post("/pipelines/council", s.handleCouncil)

		// Single-step agents
		r.Post("/insights", s.handleInsights)
		r.Post("/recommendations", s.handleRecommendations)

		// Conversational advisor
		r.Post("/chat", s.handleChat)

		// Lending news
		r.Get("/news", s.handleNews)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// WebSocket pipeline progress stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ChatRequest is the body for POST /api/v1/chat.
type ChatRequest struct {
	Messages    []agent.ChatMessage `json:"messages"`
	Language    string              `json:"language,omitempty"` // "en" (default) or "hi"
	Profile     *models.UserProfile `json:"profile,omitempty"`
	IncludeNews bool                `json:"includeNews,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "ok",
			"version":     Version,
			"model_chain": s.gw.ModelChain(),
			"ws_clients":  s.wsHub.ClientCount(),
			"time_ist":    utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

// handleRecovery runs the three-agent rejection recovery pipeline. Degraded
// runs still return 200: the result carries per-stage fallbacks and the
// aggregate status instead of an error.
func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	squad := agent.NewRecoverySquad(s.gw, s.pipelineOpts...)
	result := squad.Run(ctx, profile)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"result":  result,
			"summary": recoverySummary(result),
		},
	})
}

// handleCouncil runs the optimist/pessimist/judge debate.
func (s *Server) handleCouncil(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	council := agent.NewCouncil(s.gw, s.pipelineOpts...)
	result := council.Run(ctx, profile)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"result":  result,
			"summary": councilSummary(result),
		},
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	insights := agent.NewInsightsAgent(s.gw, s.pipelineOpts...)
	result := insights.Run(ctx, profile)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"result": result,
			"report": stageData(result, agent.StageInsights),
		},
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	recommender := agent.NewRecommendationAgent(s.gw, s.pipelineOpts...)
	result := recommender.Run(ctx, profile)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"result": result,
			"report": stageData(result, agent.StageRecommendations),
		},
	})
}

// handleChat answers a conversation turn. Unlike pipelines, chat has no
// fallback payload: quota failures surface as 429, others as 500.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	ctx, cancel := s.pipelineContext(r)
	defer cancel()

	chatReq := agent.ChatRequest{
		Messages: req.Messages,
		Language: req.Language,
		Profile:  req.Profile,
	}
	if req.IncludeNews {
		chatReq.Headlines = s.news.Headlines(ctx, s.cfg.News.MaxHeadlines)
	}

	reply, err := agent.NewAdvisor(s.gw).Chat(ctx, chatReq)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimit) {
			writeError(w, http.StatusTooManyRequests, "API quota exceeded. Please try again in a few moments.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"response": reply,
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var (
		articles []models.NewsArticle
		err      error
	)
	if topic := r.URL.Query().Get("topic"); topic != "" {
		articles, err = s.news.GetTopicNews(ctx, topic, limit)
	} else {
		articles, err = s.news.GetLendingNews(ctx, limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Helpers
// ============================================================

// decodeProfile reads a UserProfile body, writing a 400 on malformed JSON.
// An empty body is a valid (all-defaults) profile.
func decodeProfile(w http.ResponseWriter, r *http.Request) (models.UserProfile, bool) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return models.UserProfile{}, false
	}
	return profile, true
}

// pipelineContext derives the per-run deadline from config.
func (s *Server) pipelineContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.Pipeline.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

// recoverySummary flattens the pipeline result into the stage-keyed shape
// clients render directly.
func recoverySummary(result *models.PipelineResult) map[string]interface{} {
	summary := map[string]interface{}{
		"stage1_investigation": stageData(result, agent.StageInvestigation),
		"stage2_strategy":      stageData(result, agent.StageStrategy),
		"stage3_plan":          stageData(result, agent.StagePlan),
		"status":               result.Status,
	}
	if days, ok := estimatedDays(stageData(result, agent.StagePlan)); ok {
		summary["targetDate"] = utils.FormatDateIST(utils.PlanTargetDate(days))
	}
	return summary
}

// estimatedDays reads the plan duration, which arrives as a JSON number or
// a native int depending on whether the stage degraded.
func estimatedDays(plan map[string]any) (int, bool) {
	switch v := plan["estimatedDays"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// councilSummary flattens the debate into the verdict shape clients render.
func councilSummary(result *models.PipelineResult) map[string]interface{} {
	judge := stageData(result, agent.StageJudge)

	summary := map[string]interface{}{
		"optimistArgument":  argumentText(result, agent.StageOptimist),
		"pessimistArgument": argumentText(result, agent.StagePessimist),
		"judgeVerdict":      judge["verdict"],
		"approved":          judge["approved"],
		"confidence":        judge["confidence"],
		"status":            result.Status,
	}
	return summary
}

func stageData(result *models.PipelineResult, name string) map[string]any {
	stage, ok := result.Stage(name)
	if !ok {
		return map[string]any{}
	}
	return stage.Data
}

func argumentText(result *models.PipelineResult, name string) string {
	arg, _ := stageData(result, name)[agent.ArgumentKey].(string)
	return arg
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting. It
// implements agent.EventSink so pipelines can stream progress to clients.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish implements agent.EventSink: pipeline events stream to every
// connected client. Never blocks; messages drop when the channel is full.
func (h *WSHub) Publish(e agent.Event) {
	h.Broadcast(WSMessage{Type: e.Type, Data: e})
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arthastra/arthastra/internal/agent"
	"github.com/arthastra/arthastra/internal/config"
	"github.com/arthastra/arthastra/internal/datasource"
	"github.com/arthastra/arthastra/internal/llm"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// scriptedProvider is an llm.Provider whose Generate is a test closure.
type scriptedProvider struct {
	generate func(ctx context.Context, model, prompt string) (string, error)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, model, prompt string, _ *llm.GenerateOptions) (string, error) {
	return p.generate(ctx, model, prompt)
}

func (p *scriptedProvider) Models() []string { return []string{"scripted-model"} }

func (p *scriptedProvider) Ping(ctx context.Context) error { return nil }

// testServer builds a server around a scripted provider, with zero stage
// delay and no outbound news fetching.
func testServer(t *testing.T, p llm.Provider) *Server {
	t.Helper()

	cfg := &config.Config{
		LLM: config.LLMConfig{
			Model:       "scripted-model",
			Temperature: 0.7,
			MaxTokens:   2000,
		},
		Pipeline: config.PipelineConfig{
			StageDelayMS:      0,
			RequestTimeoutSec: 10,
		},
		News: config.NewsConfig{MaxHeadlines: 5},
	}

	srv := &Server{
		cfg:   cfg,
		gw:    llm.NewGateway(p, cfg.LLM.Model),
		news:  datasource.NewNews(datasource.WithSources(nil)),
		wsHub: NewWSHub(),
	}
	srv.pipelineOpts = []agent.PipelineOption{
		agent.WithStageDelay(0),
		agent.WithEventSink(srv.wsHub),
	}
	srv.router = srv.buildRouter()
	go srv.wsHub.Run()

	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func dataMap(t *testing.T, resp APIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}
	return m
}

const sampleProfileJSON = `{
	"monthlyIncome": 100000,
	"existingEmi": 10000,
	"monthlyExpenses": 30000,
	"creditScore": 700,
	"employmentType": "salaried",
	"employmentTenure": "2-5yr",
	"loanAmount": 500000,
	"tenureYears": 5
}`

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) { return "ok", nil },
	})

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Fatalf("%s: success = false", path)
		}
		data := dataMap(t, resp)
		if data["status"] != "ok" {
			t.Errorf("%s: status = %v, want ok", path, data["status"])
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Recovery pipeline
// ════════════════════════════════════════════════════════════════════

func TestRecoveryEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return `{"rootCause":"debt load","hiddenFactor":"none","severity":"Medium","bulletPoints":[]}`, nil
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipelines/recovery", sampleProfileJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("success = false")
	}
	data := dataMap(t, resp)

	result, ok := data["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result object")
	}
	if result["status"] != "ok" {
		t.Errorf("status = %v, want ok", result["status"])
	}
	order, _ := result["order"].([]any)
	if len(order) != 3 {
		t.Fatalf("order length = %d, want 3", len(order))
	}

	summary, ok := data["summary"].(map[string]any)
	if !ok {
		t.Fatal("missing summary object")
	}
	for _, key := range []string{"stage1_investigation", "stage2_strategy", "stage3_plan"} {
		if _, ok := summary[key]; !ok {
			t.Errorf("summary missing %s", key)
		}
	}
}

// A quota-exhausted provider must still produce a 200 with fallback content;
// the client renders the hand-authored plan instead of an error page.
func TestRecoveryEndpointDegradedStillOK(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return "", llm.ErrRateLimit
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipelines/recovery", sampleProfileJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("success = false on degraded run")
	}
	data := dataMap(t, resp)
	result := data["result"].(map[string]any)
	if result["status"] != "fallback" {
		t.Errorf("status = %v, want fallback", result["status"])
	}

	summary := data["summary"].(map[string]any)
	plan, _ := summary["stage3_plan"].(map[string]any)
	if plan["estimatedDays"] == nil {
		t.Error("fallback plan missing estimatedDays")
	}
}

func TestRecoveryEndpointMalformedBody(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) { return "ok", nil },
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipelines/recovery", `{"monthlyIncome": "not a number"`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Fatal("success = true for malformed body")
	}
}

// ════════════════════════════════════════════════════════════════════
// Council pipeline
// ════════════════════════════════════════════════════════════════════

func TestCouncilEndpointProseJudge(t *testing.T) {
	// Debaters return prose; the judge also returns prose, which is
	// recovered into a verdict with neutral confidence.
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, prompt string) (string, error) {
			return "The applicant shows steady income.", nil
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipelines/council", sampleProfileJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	resp := decodeResponse(t, rec)
	data := dataMap(t, resp)
	summary := data["summary"].(map[string]any)

	if summary["optimistArgument"] != "The applicant shows steady income." {
		t.Errorf("optimistArgument = %v", summary["optimistArgument"])
	}
	if summary["pessimistArgument"] != "The applicant shows steady income." {
		t.Errorf("pessimistArgument = %v", summary["pessimistArgument"])
	}
	if summary["judgeVerdict"] != "The applicant shows steady income." {
		t.Errorf("judgeVerdict = %v", summary["judgeVerdict"])
	}
	if summary["approved"] != false {
		t.Errorf("approved = %v, want false", summary["approved"])
	}
	if summary["confidence"] != float64(50) {
		t.Errorf("confidence = %v, want 50", summary["confidence"])
	}
	if summary["status"] != "partial" {
		t.Errorf("status = %v, want partial", summary["status"])
	}
}

func TestCouncilEndpointStructuredJudge(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, prompt string) (string, error) {
			if strings.Contains(prompt, "Chief Compliance Officer") {
				return `{"verdict":"Approved with conditions","approved":true,"confidence":82}`, nil
			}
			return "Debate argument.", nil
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipelines/council", sampleProfileJSON)
	resp := decodeResponse(t, rec)
	summary := dataMap(t, resp)["summary"].(map[string]any)

	if summary["approved"] != true {
		t.Errorf("approved = %v, want true", summary["approved"])
	}
	if summary["confidence"] != float64(82) {
		t.Errorf("confidence = %v, want 82", summary["confidence"])
	}
	if summary["status"] != "ok" {
		t.Errorf("status = %v, want ok", summary["status"])
	}
}

// ════════════════════════════════════════════════════════════════════
// Insights and recommendations
// ════════════════════════════════════════════════════════════════════

func TestInsightsEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return `{"overallAssessment":"solid","strengths":["income"],"weaknesses":[],"improvementPlan":[],"approvalOdds":74}`, nil
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/insights", sampleProfileJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	report := dataMap(t, resp)["report"].(map[string]any)
	if report["approvalOdds"] != float64(74) {
		t.Errorf("approvalOdds = %v, want 74", report["approvalOdds"])
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return `{"recommendations":[{"bankName":"HDFC Bank","approvalProbability":80}]}`, nil
		},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/recommendations", sampleProfileJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	report := dataMap(t, resp)["report"].(map[string]any)
	recs, _ := report["recommendations"].([]any)
	if len(recs) != 1 {
		t.Fatalf("recommendations length = %d, want 1", len(recs))
	}
}

// ════════════════════════════════════════════════════════════════════
// Chat
// ════════════════════════════════════════════════════════════════════

func TestChatEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return "Namaste! A personal loan at 10.5% works out to...", nil
		},
	})

	body := `{"messages":[{"role":"user","content":"What EMI for 5 lakh?"}]}`
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/chat", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := dataMap(t, resp)
	reply, _ := data["response"].(string)
	if !strings.HasPrefix(reply, "Namaste!") {
		t.Errorf("response = %q", reply)
	}
}

func TestChatEndpointRateLimited(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) {
			return "", llm.ErrRateLimit
		},
	})

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/chat", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Fatal("success = true on quota error")
	}
}

func TestChatEndpointMissingMessages(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) { return "ok", nil },
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/chat", `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Config endpoints
// ════════════════════════════════════════════════════════════════════

func TestGetConfigEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) { return "ok", nil },
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := dataMap(t, resp)
	if data["model"] != "scripted-model" {
		t.Errorf("model = %v, want scripted-model", data["model"])
	}
}

func TestGetConfigKeysEndpoint(t *testing.T) {
	srv := testServer(t, &scriptedProvider{
		generate: func(_ context.Context, _, _ string) (string, error) { return "ok", nil },
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/config/keys", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("success = false")
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket hub
// ════════════════════════════════════════════════════════════════════

func TestWSHubPublishNeverBlocks(t *testing.T) {
	hub := NewWSHub() // no Run loop: broadcast channel fills up

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(agent.Event{Type: agent.EventStageCompleted, Pipeline: "recovery"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no consumers")
	}
}

func TestWSHubRegisterUnregister(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)

	deadline := time.After(time.Second)
	for hub.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	hub.Broadcast(WSMessage{Type: "stage_completed"})
	select {
	case msg := <-client.send:
		if msg.Type != "stage_completed" {
			t.Errorf("msg.Type = %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never delivered")
	}

	hub.Unregister(client)
	deadline = time.After(time.Second)
	for hub.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client never unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/arthastra/arthastra/internal/agent/prompts"
	"github.com/arthastra/arthastra/internal/fintools"
	"github.com/arthastra/arthastra/pkg/models"
)

// ErrEmptyConversation is returned by Chat when no messages are provided.
var ErrEmptyConversation = errors.New("agent: conversation has no messages")

// ChatMessage is one turn of an advisor conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest carries a conversation to the advisor.
type ChatRequest struct {
	Messages  []ChatMessage
	Language  string // "en" (default) or "hi"
	Profile   *models.UserProfile
	Headlines []string // recent lending news, optional
}

// Advisor is the conversational loan advisor. Unlike the pipelines it has no
// fallback payload: a failed completion surfaces as an error so the API
// layer can report quota problems honestly.
type Advisor struct {
	gw Completer
}

// NewAdvisor creates a conversational advisor.
func NewAdvisor(gw Completer) *Advisor {
	return &Advisor{gw: gw}
}

// Chat answers the latest user message with the full conversation folded
// into the prompt.
func (a *Advisor) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrEmptyConversation
	}

	text, err := a.gw.Complete(ctx, a.renderPrompt(req))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (a *Advisor) renderPrompt(req ChatRequest) string {
	var sb strings.Builder
	sb.WriteString(prompts.AdvisorSystemPrompt)
	sb.WriteString("\n\n")
	if req.Language == "hi" {
		sb.WriteString(prompts.AdvisorLanguageHindi)
	} else {
		sb.WriteString(prompts.AdvisorLanguageEnglish)
	}

	sb.WriteString("\n\nCONTEXT AWARENESS:\n")
	if req.Profile != nil {
		data, err := json.Marshal(req.Profile)
		if err == nil {
			sb.WriteString("User Profile: ")
			sb.Write(data)
		}
	} else {
		sb.WriteString("No user profile available yet.")
	}

	if len(req.Headlines) > 0 {
		sb.WriteString("\n\nRECENT LENDING NEWS:\n")
		for _, h := range req.Headlines {
			sb.WriteString("- ")
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n\nCONVERSATION:\n")
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		role := "User"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
	}

	last := req.Messages[len(req.Messages)-1]
	fmt.Fprintf(&sb, "User: %s\nAssistant:", last.Content)

	return sb.String()
}

// ── Eligibility Insights ──

// StageInsights is the single stage of the insights pipeline.
const StageInsights = "insights"

// InsightsAgent analyzes a profile's loan eligibility in a single step.
type InsightsAgent struct {
	gw   Completer
	opts []PipelineOption
}

// NewInsightsAgent creates the insights runner.
func NewInsightsAgent(gw Completer, opts ...PipelineOption) *InsightsAgent {
	return &InsightsAgent{gw: gw, opts: opts}
}

// Run produces an eligibility assessment. On model failure the stage
// degrades to a deterministic assessment computed from the profile.
func (ia *InsightsAgent) Run(ctx context.Context, profile models.UserProfile) *models.PipelineResult {
	dti := fintools.DTI(profile.MonthlyIncome, profile.ExistingEMI, profile.MonthlyExpenses)
	risk := fintools.EmploymentRisk(profile.EmploymentTypeOrDefault(), profile.EmploymentTenureOrDefault())
	score := profile.CreditScoreOrDefault()

	step := NewStep(ia.gw, StepSpec{
		Name: StageInsights,
		Role: prompts.InsightsRole,
		OutputFields: []string{
			"overallAssessment", "strengths", "weaknesses", "improvementPlan", "approvalOdds",
		},
		Fallback: insightsFallback(dti, risk, score),
		BuildContext: func(map[string]any) map[string]any {
			return map[string]any{
				"userProfile": map[string]any{
					"monthlyIncome":    profile.MonthlyIncome,
					"existingEMI":      profile.ExistingEMI,
					"creditScore":      score,
					"employmentType":   profile.EmploymentTypeOrDefault(),
					"employmentTenure": profile.EmploymentTenureOrDefault(),
				},
				"toolResults": map[string]any{
					"dtiRatioPct":    dti,
					"employmentRisk": risk,
				},
			}
		},
	})

	pipeline := NewPipeline("insights", []Stage{Seq(step)}, ia.opts...)
	return pipeline.Run(ctx, nil)
}

// insightsFallback builds a deterministic assessment from the tool results
// alone, used when the model is unreachable.
func insightsFallback(dti float64, risk fintools.EmploymentRiskResult, score int) map[string]any {
	odds := 70
	switch {
	case dti > 50:
		odds -= 25
	case dti > 35:
		odds -= 10
	}
	odds -= risk.RiskScore / 5
	switch {
	case score >= 750:
		odds += 15
	case score < 650:
		odds -= 15
	}
	if odds < 5 {
		odds = 5
	}
	if odds > 95 {
		odds = 95
	}

	strengths := []any{}
	weaknesses := []any{}
	if dti <= 35 {
		strengths = append(strengths, fmt.Sprintf("Healthy debt-to-income ratio of %.1f%%", dti))
	} else {
		weaknesses = append(weaknesses, fmt.Sprintf("Debt obligations consume %.1f%% of income", dti))
	}
	if score >= 750 {
		strengths = append(strengths, fmt.Sprintf("Prime credit score of %d", score))
	} else if score < 650 {
		weaknesses = append(weaknesses, fmt.Sprintf("Credit score of %d is below lender comfort", score))
	}
	if risk.RiskScore < 25 {
		strengths = append(strengths, "Stable, verifiable employment")
	} else if risk.RiskScore >= 50 {
		weaknesses = append(weaknesses, risk.Reason)
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Complete application profile provided")
	}

	return map[string]any{
		"overallAssessment": fmt.Sprintf(
			"Based on computed metrics: DTI %.1f%%, employment risk %s, credit score %d. Detailed AI analysis is temporarily unavailable.",
			dti, risk.RiskLevel, score),
		"strengths":  strengths,
		"weaknesses": weaknesses,
		"improvementPlan": []any{
			map[string]any{
				"action":    "Reduce existing EMI obligations before applying",
				"impact":    "Lowers DTI, the primary approval gate",
				"timeframe": "1-3 months",
			},
			map[string]any{
				"action":    "Pull your CIBIL report and dispute any errors",
				"impact":    "Disputed errors can recover 15+ points",
				"timeframe": "2-4 weeks",
			},
		},
		"approvalOdds": odds,
	}
}

// ── Loan Recommendations ──

// StageRecommendations is the single stage of the recommendations pipeline.
const StageRecommendations = "recommendations"

// recommendedLenders are the representative offers used both as prompt
// grounding (the model must reuse the computed EMIs) and as the
// deterministic fallback.
var recommendedLenders = []struct {
	Bank    string
	Product string
	Rate    float64
	Days    int
}{
	{"HDFC Bank", "Personal Loan Xpress", 10.5, 2},
	{"ICICI Bank", "Insta Personal Loan", 11.25, 3},
	{"Axis Bank", "24x7 Personal Loan", 11.99, 4},
}

// RecommendationAgent suggests bank offers for a requested loan.
type RecommendationAgent struct {
	gw   Completer
	opts []PipelineOption
}

// NewRecommendationAgent creates the recommendations runner.
func NewRecommendationAgent(gw Completer, opts ...PipelineOption) *RecommendationAgent {
	return &RecommendationAgent{gw: gw, opts: opts}
}

// Run recommends loan offers. EMIs are always computed deterministically and
// handed to the model; the model ranks and explains, it never does the
// arithmetic.
func (ra *RecommendationAgent) Run(ctx context.Context, profile models.UserProfile) *models.PipelineResult {
	amount := profile.LoanAmount
	if amount <= 0 {
		amount = 500000
	}
	tenure := profile.TenureYears
	if tenure <= 0 {
		tenure = 5
	}
	dti := fintools.DTI(profile.MonthlyIncome, profile.ExistingEMI, profile.MonthlyExpenses)
	score := profile.CreditScoreOrDefault()

	emiByBank := make(map[string]any, len(recommendedLenders))
	for _, l := range recommendedLenders {
		emiByBank[l.Bank] = map[string]any{
			"interestRate": l.Rate,
			"monthlyEMI":   fintools.EMI(amount, l.Rate, tenure),
		}
	}

	step := NewStep(ra.gw, StepSpec{
		Name:         StageRecommendations,
		Role:         prompts.RecommenderRole,
		OutputFields: []string{"recommendations", "overallAdvice"},
		Fallback:     recommendationsFallback(amount, tenure, score, dti),
		BuildContext: func(map[string]any) map[string]any {
			return map[string]any{
				"userProfile": map[string]any{
					"monthlyIncome":  profile.MonthlyIncome,
					"existingEMI":    profile.ExistingEMI,
					"creditScore":    score,
					"employmentType": profile.EmploymentTypeOrDefault(),
					"loanAmount":     amount,
					"tenureYears":    tenure,
				},
				"toolResults": map[string]any{
					"dtiRatioPct": dti,
					"emiByBank":   emiByBank,
				},
			}
		},
	})

	pipeline := NewPipeline("recommendations", []Stage{Seq(step)}, ra.opts...)
	return pipeline.Run(ctx, nil)
}

// recommendationsFallback builds offers from the EMI arithmetic alone.
func recommendationsFallback(amount float64, tenure, score int, dti float64) map[string]any {
	probability := 75
	switch {
	case score >= 750:
		probability = 85
	case score < 650:
		probability = 55
	}
	if dti > 50 {
		probability -= 20
	}
	if probability < 10 {
		probability = 10
	}

	recs := make([]any, 0, len(recommendedLenders))
	for _, l := range recommendedLenders {
		recs = append(recs, map[string]any{
			"bankName":                l.Bank,
			"productName":             l.Product,
			"interestRate":            l.Rate,
			"processingTime":          l.Days,
			"approvalProbability":     probability,
			"monthlyEMI":              fintools.EMI(amount, l.Rate, tenure),
			"reasonForRecommendation": "Competitive rate for your profile based on computed EMI affordability.",
			"keyBenefits": []any{
				"Minimal documentation for salaried applicants",
				"No prepayment penalty after 12 months",
			},
		})
	}

	return map[string]any{
		"recommendations": recs,
		"overallAdvice": "Apply after your next salary credit, keep salary slips and bank statements for 6 months ready, " +
			"and avoid new credit inquiries for 30 days before applying.",
	}
}

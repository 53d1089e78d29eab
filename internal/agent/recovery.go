package agent

import (
	"context"
	"fmt"

	"github.com/arthastra/arthastra/internal/agent/prompts"
	"github.com/arthastra/arthastra/internal/fintools"
	"github.com/arthastra/arthastra/pkg/models"
)

// Recovery squad stage names.
const (
	StageInvestigation = "investigation"
	StageStrategy      = "strategy"
	StagePlan          = "plan"
)

// RecoverySquad is the three-agent rejection-recovery pipeline:
// investigator → negotiator → architect. Each agent reasons over
// deterministic tool results computed up front from the applicant profile,
// so the chain stays grounded even when a model hallucinates numbers.
type RecoverySquad struct {
	gw   Completer
	opts []PipelineOption
}

// NewRecoverySquad creates the recovery pipeline runner.
func NewRecoverySquad(gw Completer, opts ...PipelineOption) *RecoverySquad {
	return &RecoverySquad{gw: gw, opts: opts}
}

// Run executes the full chain for one applicant. The result always contains
// all three stages; degraded stages carry hand-authored fallback analyses.
func (r *RecoverySquad) Run(ctx context.Context, profile models.UserProfile) *models.PipelineResult {
	dti := fintools.DTI(profile.MonthlyIncome, profile.ExistingEMI, profile.MonthlyExpenses)
	risk := fintools.EmploymentRisk(profile.EmploymentTypeOrDefault(), profile.EmploymentTenureOrDefault())
	anomalies := fintools.DetectAnomalies(profile)

	score := profile.CreditScoreOrDefault()
	creditSim := fintools.SimulateCreditImpact(score, []string{
		fintools.ActionDisputeError,
		fintools.ActionReduceUtilization,
	})

	// Emergency-fund assumptions: ₹10k saved, ₹50k target, ₹5k/month rate.
	timeline := fintools.SavingsTimeline(10000, 50000, 5000)
	estimatedDays := timeline.Months * 30
	if timeline.Months == fintools.TimelineUnreachable {
		estimatedDays = 180
	}

	investigator := NewStep(r.gw, StepSpec{
		Name:         StageInvestigation,
		Role:         prompts.InvestigatorRole,
		OutputFields: []string{"rootCause", "hiddenFactor", "severity", "bulletPoints"},
		Fallback: map[string]any{
			"rootCause":    "High employment risk combined with elevated debt obligations",
			"hiddenFactor": "Income-to-savings mismatch suggests temporary income",
			"severity":     risk.RiskLevel,
			"bulletPoints": []any{
				fmt.Sprintf("DTI Ratio: %.1f%% (computed via tool)", dti),
				fmt.Sprintf("Employment risk: %s (%d/100)", risk.RiskLevel, risk.RiskScore),
				"Savings inconsistent with income level",
			},
		},
		BuildContext: func(map[string]any) map[string]any {
			return map[string]any{
				"userProfile": map[string]any{
					"monthlyIncome":    profile.MonthlyIncome,
					"employmentType":   profile.EmploymentTypeOrDefault(),
					"employmentTenure": profile.EmploymentTenureOrDefault(),
					"creditScore":      score,
				},
				"toolResults": map[string]any{
					"dtiRatioPct":    dti,
					"employmentRisk": risk,
					"anomalies":      anomalies,
				},
			}
		},
	})

	negotiator := NewStep(r.gw, StepSpec{
		Name:         StageStrategy,
		Role:         prompts.NegotiatorRole,
		OutputFields: []string{"strategyName", "actionItem", "bulletPoints", "negotiationScript"},
		Fallback: map[string]any{
			"strategyName": "Income Verification Maneuver",
			"actionItem":   "Submit employment contract + 6-month bank statements",
			"bulletPoints": []any{
				"Request official employer letter",
				"Provide proof of consistent income credits",
				"Offer higher down payment to offset risk",
			},
			"negotiationScript": "I can provide comprehensive documentation proving stable income despite recent employment commencement...",
		},
		BuildContext: func(carry map[string]any) map[string]any {
			return map[string]any{
				"investigationFindings": carry[StageInvestigation],
				"toolResults": map[string]any{
					"currentCreditScore":   score,
					"projectedCreditScore": creditSim.ProjectedScore,
					"scoreBoost":           creditSim.ProjectedScore - score,
					"actionsSimulated":     creditSim.Changes,
				},
			}
		},
	})

	architect := NewStep(r.gw, StepSpec{
		Name:         StagePlan,
		Role:         prompts.ArchitectRole,
		OutputFields: []string{"step1", "step2", "step3", "estimatedDays"},
		Fallback: map[string]any{
			"step1":         "Gather employment contract and bank statements (Week 1)",
			"step2":         "Submit dispute letter to credit bureau (Week 2-4)",
			"step3":         "Build ₹50k emergency fund via auto-debit (Month 2-6)",
			"estimatedDays": estimatedDays,
		},
		BuildContext: func(carry map[string]any) map[string]any {
			return map[string]any{
				"negotiationStrategy": carry[StageStrategy],
				"toolResults": map[string]any{
					"monthsToEmergencyFund": timeline.Months,
					"savingsMilestones":     timeline.Milestones,
					"estimatedDays":         estimatedDays,
				},
			}
		},
	})

	pipeline := NewPipeline("recovery", []Stage{
		Seq(investigator),
		Seq(negotiator),
		Seq(architect),
	}, r.opts...)

	return pipeline.Run(ctx, nil)
}

package agent

import (
	"context"

	"github.com/arthastra/arthastra/internal/agent/prompts"
	"github.com/arthastra/arthastra/pkg/models"
)

// Financial council stage names.
const (
	StageOptimist  = "optimist"
	StagePessimist = "pessimist"
	StageJudge     = "judge"
)

// ArgumentKey is the key debater stages store their free-text argument under.
const ArgumentKey = "argument"

// Council is the loan-approval debate pipeline: the optimist and pessimist
// argue the application concurrently, then the judge weighs both arguments
// and issues the binding verdict.
type Council struct {
	gw   Completer
	opts []PipelineOption
}

// NewCouncil creates the council pipeline runner.
func NewCouncil(gw Completer, opts ...PipelineOption) *Council {
	return &Council{gw: gw, opts: opts}
}

// Run debates one loan application. The judge's data always has the keys
// verdict, approved, and confidence; when the judge's completion carries no
// JSON object its prose becomes the verdict with approved=false and
// confidence 50.
func (c *Council) Run(ctx context.Context, profile models.UserProfile) *models.PipelineResult {
	application := map[string]any{
		"monthlyIncome":      profile.MonthlyIncome,
		"monthlyExpenses":    profile.MonthlyExpenses,
		"existingEMI":        profile.ExistingEMI,
		"creditScore":        profile.CreditScoreOrDefault(),
		"employmentType":     profile.EmploymentTypeOrDefault(),
		"employmentTenure":   profile.EmploymentTenureOrDefault(),
		"savings":            profile.Savings,
		"loanAmount":         profile.LoanAmount,
		"tenureYears":        profile.TenureYears,
		"isJointApplication": profile.IsJointApplication,
	}

	debaterContext := func(map[string]any) map[string]any {
		return map[string]any{"loanApplication": application}
	}

	optimist := NewStep(c.gw, StepSpec{
		Name:         StageOptimist,
		Role:         prompts.OptimistRole,
		RawKey:       ArgumentKey,
		Fallback:     map[string]any{ArgumentKey: "Service temporarily unavailable."},
		BuildContext: debaterContext,
	})

	pessimist := NewStep(c.gw, StepSpec{
		Name:         StagePessimist,
		Role:         prompts.PessimistRole,
		RawKey:       ArgumentKey,
		Fallback:     map[string]any{ArgumentKey: "Service temporarily unavailable."},
		BuildContext: debaterContext,
	})

	judge := NewStep(c.gw, StepSpec{
		Name:         StageJudge,
		Role:         prompts.JudgeRole,
		OutputFields: []string{"verdict", "approved", "confidence"},
		Fallback: map[string]any{
			"verdict":    "Unable to reach a verdict. The application requires manual review.",
			"approved":   false,
			"confidence": 50,
		},
		Recover: func(raw string) map[string]any {
			return map[string]any{
				"verdict":    raw,
				"approved":   false,
				"confidence": 50,
			}
		},
		BuildContext: func(carry map[string]any) map[string]any {
			return map[string]any{
				"loanApplication":   application,
				"optimistArgument":  argumentFrom(carry, StageOptimist),
				"pessimistArgument": argumentFrom(carry, StagePessimist),
			}
		},
	})

	pipeline := NewPipeline("council", []Stage{
		Par(optimist, pessimist),
		Seq(judge),
	}, c.opts...)

	return pipeline.Run(ctx, nil)
}

// argumentFrom pulls a debater's argument text out of the carry.
func argumentFrom(carry map[string]any, stage string) string {
	data, ok := carry[stage].(map[string]any)
	if !ok {
		return ""
	}
	arg, _ := data[ArgumentKey].(string)
	return arg
}

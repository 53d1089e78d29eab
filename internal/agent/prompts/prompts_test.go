package prompts

import (
	"strings"
	"testing"
)

// ── Agent Name Constants ──

func TestAgentNameConstants(t *testing.T) {
	names := map[string]string{
		"AgentInvestigator": AgentInvestigator,
		"AgentNegotiator":   AgentNegotiator,
		"AgentArchitect":    AgentArchitect,
		"AgentOptimist":     AgentOptimist,
		"AgentPessimist":    AgentPessimist,
		"AgentJudge":        AgentJudge,
		"AgentAdvisor":      AgentAdvisor,
		"AgentInsights":     AgentInsights,
		"AgentRecommender":  AgentRecommender,
	}
	for label, name := range names {
		if name == "" {
			t.Errorf("%s should not be empty", label)
		}
		if strings.Contains(name, " ") {
			t.Errorf("%s should not contain spaces: %q", label, name)
		}
	}
}

// ── Role Instructions ──

func TestRecoveryRolesMentionToolResults(t *testing.T) {
	// The squad prompts must steer the model toward the injected computed
	// facts rather than its own arithmetic.
	for label, role := range map[string]string{
		"InvestigatorRole": InvestigatorRole,
		"NegotiatorRole":   NegotiatorRole,
		"ArchitectRole":    ArchitectRole,
	} {
		if !strings.Contains(role, "TOOL RESULTS") {
			t.Errorf("%s does not reference TOOL RESULTS", label)
		}
	}
}

func TestCouncilRolesAreAdversarial(t *testing.T) {
	if !strings.Contains(OptimistRole, "APPROVE") {
		t.Error("OptimistRole should argue for approval")
	}
	if !strings.Contains(PessimistRole, "REJECT") {
		t.Error("PessimistRole should argue for rejection")
	}
	if !strings.Contains(JudgeRole, "FINAL") {
		t.Error("JudgeRole should demand a final decision")
	}
}

func TestAdvisorPromptCoversIndianLending(t *testing.T) {
	for _, want := range []string{"CIBIL", "EMI", "RBI", "₹"} {
		if !strings.Contains(AdvisorSystemPrompt, want) {
			t.Errorf("AdvisorSystemPrompt missing %q", want)
		}
	}
}

func TestLanguageInstructions(t *testing.T) {
	if !strings.Contains(AdvisorLanguageHindi, "Hindi") {
		t.Error("AdvisorLanguageHindi missing language name")
	}
	if !strings.Contains(AdvisorLanguageEnglish, "English") {
		t.Error("AdvisorLanguageEnglish missing language name")
	}
}

func TestRecommenderUsesComputedEMIs(t *testing.T) {
	if !strings.Contains(RecommenderRole, "do not recompute") {
		t.Error("RecommenderRole should forbid recomputing EMIs")
	}
}

// ── Indian Lending Suffix ──

func TestIndianLendingPromptSuffix(t *testing.T) {
	suffix := IndianLendingPromptSuffix()

	for _, want := range []string{"CIBIL", "300-900", "Lakh", "Crore", "RBI"} {
		if !strings.Contains(suffix, want) {
			t.Errorf("suffix missing %q", want)
		}
	}

	if !strings.Contains(suffix, IndianLendingContext) || !strings.Contains(suffix, IndianNumberFormat) {
		t.Error("suffix should concatenate context and number-format blocks")
	}
}

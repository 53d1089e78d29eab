// Package fintools provides the deterministic metrics used to ground agent
// prompts in computed facts: DTI, employment risk scoring, anomaly
// detection, credit-score impact simulation, savings timelines, and EMI
// arithmetic. Every function is pure and total — defined for all inputs,
// no panics — so pipeline fallbacks can always be constructed.
package fintools

import (
	"fmt"
	"math"

	"github.com/arthastra/arthastra/pkg/models"
	"github.com/arthastra/arthastra/pkg/utils"
)

// DTI returns the debt-to-income ratio as a percentage rounded to one
// decimal: (existingEMI + monthlyExpenses) / monthlyIncome * 100.
// Returns 0 when monthlyIncome is zero or negative.
func DTI(monthlyIncome, existingEMI, monthlyExpenses float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	pct := (existingEMI + monthlyExpenses) / monthlyIncome * 100
	return math.Round(pct*10) / 10
}

// EmploymentRiskResult scores how risky an applicant's employment looks to
// a lender. RiskScore is in [0,100]; higher means riskier.
type EmploymentRiskResult struct {
	RiskScore int    `json:"riskScore"`
	RiskLevel string `json:"riskLevel"` // Low, Medium, High, Critical
	Reason    string `json:"reason"`
}

// EmploymentRisk scores employment type and tenure. Base score by type
// (student highest, salaried lowest) plus a penalty for short tenure,
// clamped to [0,100].
func EmploymentRisk(employmentType, tenure string) EmploymentRiskResult {
	var score int
	var reason string

	switch employmentType {
	case models.EmploymentStudent:
		score = 70
		reason = "Student employment is typically temporary and unverified."
	case models.EmploymentFreelancer:
		score = 50
		reason = "Freelance income lacks stability and documentation."
	case models.EmploymentSelfEmployed:
		score = 30
		reason = "Self-employed income requires ITR verification."
	default:
		score = 10
		reason = "Salaried employment is stable and verifiable."
	}

	switch tenure {
	case models.TenureUnder6Months:
		score += 30
		reason += " Less than 6 months tenure shows no track record."
	case models.Tenure6MonthsTo1Yr:
		score += 15
	case models.Tenure1To2Yr:
		score += 5
	}

	if score > 100 {
		score = 100
	}

	level := "Low"
	switch {
	case score >= 75:
		level = "Critical"
	case score >= 50:
		level = "High"
	case score >= 25:
		level = "Medium"
	}

	return EmploymentRiskResult{RiskScore: score, RiskLevel: level, Reason: reason}
}

// AnomalyReport lists inconsistencies detected in a profile.
type AnomalyReport struct {
	HasAnomaly bool     `json:"hasAnomaly"`
	Anomalies  []string `json:"anomalies"`
}

// DetectAnomalies flags inconsistencies in an applicant profile. The three
// rules are independent; any subset may fire.
func DetectAnomalies(p models.UserProfile) AnomalyReport {
	var anomalies []string

	savings := p.Savings
	if savings == "" {
		savings = "0-50k"
	}

	// High income with minimal stated savings.
	if p.MonthlyIncome > 100000 && savings == "0-50k" {
		anomalies = append(anomalies, fmt.Sprintf(
			"High income (%s) with minimal savings (%s) suggests income is recent or not fully disposable.",
			utils.FormatINR(p.MonthlyIncome), savings))
	}

	// Obligations consuming more than 80% of income. Fires for any positive
	// obligations when no income is declared at all.
	if total := p.MonthlyExpenses + p.ExistingEMI; total > p.MonthlyIncome*0.8 && total > 0 {
		pct := "all"
		if p.MonthlyIncome > 0 {
			pct = fmt.Sprintf("%.0f%%", total/p.MonthlyIncome*100)
		}
		anomalies = append(anomalies, fmt.Sprintf(
			"Declared expenses (%s) consume %s of income, leaving minimal buffer.",
			utils.FormatINR(total), pct))
	}

	// Student with implausibly high income.
	if p.EmploymentType == models.EmploymentStudent && p.MonthlyIncome > 50000 {
		anomalies = append(anomalies, fmt.Sprintf(
			"Student status with %s/month income is uncommon and may indicate stipend or freelance work.",
			utils.FormatINR(p.MonthlyIncome)))
	}

	return AnomalyReport{HasAnomaly: len(anomalies) > 0, Anomalies: anomalies}
}

// CreditAction tags for SimulateCreditImpact.
const (
	ActionPayOffDebt        = "pay_off_debt"
	ActionReduceUtilization = "reduce_utilization"
	ActionDisputeError      = "dispute_error"
	ActionAddCreditLine     = "add_credit_line"
	ActionFreezeRepayment   = "freeze_repayment"
)

// creditActionImpacts maps action tags to CIBIL point deltas.
var creditActionImpacts = map[string]int{
	ActionPayOffDebt:        25,
	ActionReduceUtilization: 20,
	ActionDisputeError:      15,
	ActionAddCreditLine:     -5,
	ActionFreezeRepayment:   -10,
}

// CreditChange is one action's contribution to a simulated score.
type CreditChange struct {
	Action string `json:"action"`
	Impact int    `json:"impact"`
}

// CreditImpact is the result of a credit-score simulation.
type CreditImpact struct {
	ProjectedScore int            `json:"projectedScore"`
	Changes        []CreditChange `json:"changes"`
}

// SimulateCreditImpact projects how a sequence of actions moves a credit
// score, clamping the result to the CIBIL range [300,900]. Unknown action
// tags contribute zero.
func SimulateCreditImpact(currentScore int, actions []string) CreditImpact {
	projected := currentScore
	changes := make([]CreditChange, 0, len(actions))

	for _, action := range actions {
		impact := creditActionImpacts[action]
		projected += impact
		changes = append(changes, CreditChange{Action: action, Impact: impact})
	}

	if projected > 900 {
		projected = 900
	}
	if projected < 300 {
		projected = 300
	}

	return CreditImpact{ProjectedScore: projected, Changes: changes}
}

// Milestone is one month's projected savings balance.
type Milestone struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

// TimelineUnreachable is the Months sentinel for a goal that a zero or
// negative savings rate can never reach.
const TimelineUnreachable = -1

// Timeline projects how long a savings goal takes to reach.
type Timeline struct {
	Months     int         `json:"months"`
	Milestones []Milestone `json:"milestones"`
}

// SavingsTimeline computes months to reach target from current at
// monthlyRate, with milestones for the first six months (or fewer).
// A non-positive rate with a remaining deficit yields the
// TimelineUnreachable sentinel instead of dividing by zero.
func SavingsTimeline(current, target, monthlyRate float64) Timeline {
	deficit := target - current
	if deficit <= 0 {
		return Timeline{Months: 0}
	}
	if monthlyRate <= 0 {
		return Timeline{Months: TimelineUnreachable}
	}

	months := int(math.Ceil(deficit / monthlyRate))

	n := months
	if n > 6 {
		n = 6
	}
	milestones := make([]Milestone, 0, n)
	for i := 1; i <= n; i++ {
		milestones = append(milestones, Milestone{
			Month:  i,
			Amount: math.Min(target, current+float64(i)*monthlyRate),
		})
	}

	return Timeline{Months: months, Milestones: milestones}
}

// EMI computes the standard reducing-balance equated monthly installment,
// rounded to the nearest rupee. Returns 0 for non-positive principal,
// rate, or tenure.
func EMI(principal, annualRatePct float64, tenureYears int) float64 {
	if principal <= 0 || annualRatePct <= 0 || tenureYears <= 0 {
		return 0
	}
	r := annualRatePct / 12 / 100
	n := float64(tenureYears * 12)
	factor := math.Pow(1+r, n)
	return math.Round(principal * r * factor / (factor - 1))
}

// AmortRow is one month of an amortization schedule.
type AmortRow struct {
	Month         int     `json:"month"`
	EMI           float64 `json:"emi"`
	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`
	Balance       float64 `json:"balance"`
}

// AmortizationSchedule returns the first three months of a loan's
// amortization schedule (or fewer for very short tenures).
func AmortizationSchedule(principal, annualRatePct float64, tenureYears int) []AmortRow {
	emi := EMI(principal, annualRatePct, tenureYears)
	if emi == 0 {
		return nil
	}

	r := annualRatePct / 12 / 100
	months := tenureYears * 12
	if months > 3 {
		months = 3
	}

	balance := principal
	rows := make([]AmortRow, 0, months)
	for m := 1; m <= months; m++ {
		interest := math.Round(balance * r)
		principalPaid := emi - interest
		balance -= principalPaid
		rows = append(rows, AmortRow{
			Month:         m,
			EMI:           emi,
			PrincipalPaid: principalPaid,
			InterestPaid:  interest,
			Balance:       math.Max(0, balance),
		})
	}
	return rows
}

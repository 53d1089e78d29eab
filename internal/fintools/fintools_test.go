package fintools

import (
	"math"
	"strings"
	"testing"

	"github.com/arthastra/arthastra/pkg/models"
)

// ── DTI ──

func TestDTI(t *testing.T) {
	tests := []struct {
		name             string
		income, emi, exp float64
		want             float64
	}{
		{"typical profile", 100000, 10000, 30000, 40.0},
		{"rounds to one decimal", 90000, 10000, 20000, 33.3},
		{"zero obligations", 50000, 0, 0, 0},
		{"zero income", 0, 10000, 20000, 0},
		{"negative income", -5000, 10000, 20000, 0},
		{"obligations exceed income", 40000, 30000, 30000, 150.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DTI(tt.income, tt.emi, tt.exp); got != tt.want {
				t.Errorf("DTI(%v, %v, %v) = %v, want %v", tt.income, tt.emi, tt.exp, got, tt.want)
			}
		})
	}
}

// ── Employment Risk ──

func TestEmploymentRisk(t *testing.T) {
	tests := []struct {
		name       string
		employment string
		tenure     string
		wantScore  int
		wantLevel  string
	}{
		{"salaried long tenure", models.EmploymentSalaried, models.TenureOver5Yr, 10, "Low"},
		{"salaried 1-2yr", models.EmploymentSalaried, models.Tenure1To2Yr, 15, "Low"},
		{"self-employed new", models.EmploymentSelfEmployed, models.TenureUnder6Months, 60, "High"},
		{"freelancer 6m-1yr", models.EmploymentFreelancer, models.Tenure6MonthsTo1Yr, 65, "High"},
		{"student new job", models.EmploymentStudent, models.TenureUnder6Months, 100, "Critical"},
		{"student settled", models.EmploymentStudent, models.Tenure2To5Yr, 70, "High"},
		{"freelancer 1-2yr", models.EmploymentFreelancer, models.Tenure1To2Yr, 55, "High"},
		{"self-employed settled", models.EmploymentSelfEmployed, models.Tenure2To5Yr, 30, "Medium"},
		{"unknown type treated as salaried", "contractor", models.Tenure2To5Yr, 10, "Low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EmploymentRisk(tt.employment, tt.tenure)
			if got.RiskScore != tt.wantScore {
				t.Errorf("RiskScore = %d, want %d", got.RiskScore, tt.wantScore)
			}
			if got.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %q, want %q", got.RiskLevel, tt.wantLevel)
			}
			if got.Reason == "" {
				t.Error("Reason should not be empty")
			}
		})
	}
}

// ── Anomaly Detection ──

func TestDetectAnomaliesCleanProfile(t *testing.T) {
	report := DetectAnomalies(models.UserProfile{
		MonthlyIncome:   80000,
		ExistingEMI:     10000,
		MonthlyExpenses: 25000,
		EmploymentType:  models.EmploymentSalaried,
		Savings:         "1L-5L",
	})
	if report.HasAnomaly {
		t.Errorf("expected clean profile, got %v", report.Anomalies)
	}
}

func TestDetectAnomaliesHighIncomeLowSavings(t *testing.T) {
	report := DetectAnomalies(models.UserProfile{
		MonthlyIncome: 150000,
		Savings:       "0-50k",
	})
	if !report.HasAnomaly {
		t.Fatal("expected anomaly")
	}
	if !strings.Contains(report.Anomalies[0], "minimal savings") {
		t.Errorf("unexpected anomaly text: %s", report.Anomalies[0])
	}
}

func TestDetectAnomaliesOverstretchedBudget(t *testing.T) {
	report := DetectAnomalies(models.UserProfile{
		MonthlyIncome:   50000,
		ExistingEMI:     20000,
		MonthlyExpenses: 25000,
		Savings:         "50k-1L",
	})
	if !report.HasAnomaly {
		t.Fatal("expected anomaly")
	}
	if !strings.Contains(report.Anomalies[0], "minimal buffer") {
		t.Errorf("unexpected anomaly text: %s", report.Anomalies[0])
	}
}

func TestDetectAnomaliesObligationsWithoutIncome(t *testing.T) {
	// Any positive obligations against zero declared income count as
	// overstretched; the rule must fire rather than be skipped.
	report := DetectAnomalies(models.UserProfile{
		ExistingEMI: 15000,
		Savings:     "50k-1L",
	})
	if !report.HasAnomaly {
		t.Fatal("expected anomaly for obligations with no income")
	}
	if !strings.Contains(report.Anomalies[0], "minimal buffer") {
		t.Errorf("unexpected anomaly text: %s", report.Anomalies[0])
	}
}

func TestDetectAnomaliesStudentHighIncome(t *testing.T) {
	report := DetectAnomalies(models.UserProfile{
		MonthlyIncome:  90000,
		EmploymentType: models.EmploymentStudent,
		Savings:        "50k-1L",
	})
	if !report.HasAnomaly {
		t.Fatal("expected anomaly")
	}
	found := false
	for _, a := range report.Anomalies {
		if strings.Contains(a, "Student status") {
			found = true
		}
	}
	if !found {
		t.Errorf("student anomaly not flagged: %v", report.Anomalies)
	}
}

func TestDetectAnomaliesMultiple(t *testing.T) {
	// High income + no savings + overstretched budget fire together.
	report := DetectAnomalies(models.UserProfile{
		MonthlyIncome:   120000,
		ExistingEMI:     60000,
		MonthlyExpenses: 40000,
		Savings:         "0-50k",
	})
	if len(report.Anomalies) != 2 {
		t.Errorf("anomalies = %d, want 2: %v", len(report.Anomalies), report.Anomalies)
	}
}

// ── Credit Impact Simulation ──

func TestSimulateCreditImpact(t *testing.T) {
	result := SimulateCreditImpact(650, []string{ActionPayOffDebt, ActionReduceUtilization})
	if result.ProjectedScore != 695 {
		t.Errorf("ProjectedScore = %d, want 695", result.ProjectedScore)
	}
	if len(result.Changes) != 2 {
		t.Fatalf("Changes = %d, want 2", len(result.Changes))
	}
	if result.Changes[0].Impact != 25 || result.Changes[1].Impact != 20 {
		t.Errorf("impacts = %+v", result.Changes)
	}
}

func TestSimulateCreditImpactNegativeActions(t *testing.T) {
	result := SimulateCreditImpact(700, []string{ActionAddCreditLine, ActionFreezeRepayment})
	if result.ProjectedScore != 685 {
		t.Errorf("ProjectedScore = %d, want 685", result.ProjectedScore)
	}
}

func TestSimulateCreditImpactClampsToCIBILRange(t *testing.T) {
	high := SimulateCreditImpact(890, []string{ActionPayOffDebt})
	if high.ProjectedScore != 900 {
		t.Errorf("upper clamp: %d, want 900", high.ProjectedScore)
	}

	low := SimulateCreditImpact(305, []string{ActionFreezeRepayment})
	if low.ProjectedScore != 300 {
		t.Errorf("lower clamp: %d, want 300", low.ProjectedScore)
	}
}

func TestSimulateCreditImpactUnknownAction(t *testing.T) {
	result := SimulateCreditImpact(650, []string{"win_lottery"})
	if result.ProjectedScore != 650 {
		t.Errorf("ProjectedScore = %d, want unchanged 650", result.ProjectedScore)
	}
	if result.Changes[0].Impact != 0 {
		t.Errorf("unknown action impact = %d, want 0", result.Changes[0].Impact)
	}
}

// ── Savings Timeline ──

func TestSavingsTimeline(t *testing.T) {
	tl := SavingsTimeline(10000, 50000, 5000)
	if tl.Months != 8 {
		t.Errorf("Months = %d, want 8", tl.Months)
	}
	if len(tl.Milestones) != 6 {
		t.Fatalf("Milestones = %d, want 6 (capped)", len(tl.Milestones))
	}
	if tl.Milestones[0].Amount != 15000 {
		t.Errorf("first milestone = %v, want 15000", tl.Milestones[0].Amount)
	}
	if tl.Milestones[5].Amount != 40000 {
		t.Errorf("sixth milestone = %v, want 40000", tl.Milestones[5].Amount)
	}
}

func TestSavingsTimelineAlreadyReached(t *testing.T) {
	tl := SavingsTimeline(60000, 50000, 5000)
	if tl.Months != 0 || len(tl.Milestones) != 0 {
		t.Errorf("got %+v, want zero months and no milestones", tl)
	}
}

func TestSavingsTimelineUnreachable(t *testing.T) {
	tl := SavingsTimeline(10000, 50000, 0)
	if tl.Months != TimelineUnreachable {
		t.Errorf("Months = %d, want %d", tl.Months, TimelineUnreachable)
	}
}

func TestSavingsTimelineMilestonesCapAtTarget(t *testing.T) {
	// 3 months to goal; final milestone must not overshoot the target.
	tl := SavingsTimeline(0, 25000, 10000)
	if tl.Months != 3 {
		t.Fatalf("Months = %d, want 3", tl.Months)
	}
	last := tl.Milestones[len(tl.Milestones)-1]
	if last.Amount != 25000 {
		t.Errorf("last milestone = %v, want capped at 25000", last.Amount)
	}
}

// ── EMI ──

func TestEMI(t *testing.T) {
	// ₹5,00,000 at 10.5% over 5 years: standard reducing-balance result.
	got := EMI(500000, 10.5, 5)
	if got != 10747 {
		t.Errorf("EMI = %v, want 10747", got)
	}
}

func TestEMIZeroInputs(t *testing.T) {
	if EMI(0, 10.5, 5) != 0 {
		t.Error("zero principal should give 0")
	}
	if EMI(500000, 0, 5) != 0 {
		t.Error("zero rate should give 0")
	}
	if EMI(500000, 10.5, 0) != 0 {
		t.Error("zero tenure should give 0")
	}
}

func TestEMIIsWholeRupees(t *testing.T) {
	got := EMI(750000, 11.25, 7)
	if got != math.Trunc(got) {
		t.Errorf("EMI = %v, want whole rupees", got)
	}
}

// ── Amortization ──

func TestAmortizationSchedule(t *testing.T) {
	rows := AmortizationSchedule(500000, 10.5, 5)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	emi := EMI(500000, 10.5, 5)
	// First month interest: 500000 * 10.5/1200 = 4375.
	if rows[0].InterestPaid != 4375 {
		t.Errorf("month 1 interest = %v, want 4375", rows[0].InterestPaid)
	}
	if rows[0].PrincipalPaid != emi-4375 {
		t.Errorf("month 1 principal = %v, want %v", rows[0].PrincipalPaid, emi-4375)
	}
	if rows[0].Balance != 500000-rows[0].PrincipalPaid {
		t.Errorf("month 1 balance = %v", rows[0].Balance)
	}

	// Balance must strictly decrease.
	if !(rows[0].Balance > rows[1].Balance && rows[1].Balance > rows[2].Balance) {
		t.Errorf("balances not decreasing: %v %v %v", rows[0].Balance, rows[1].Balance, rows[2].Balance)
	}
}

func TestAmortizationScheduleZeroLoan(t *testing.T) {
	if rows := AmortizationSchedule(0, 10.5, 5); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
}

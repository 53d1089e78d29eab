package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserProfileDefaults(t *testing.T) {
	var p UserProfile

	if got := p.EmploymentTypeOrDefault(); got != EmploymentSalaried {
		t.Errorf("EmploymentTypeOrDefault = %q, want %q", got, EmploymentSalaried)
	}
	if got := p.EmploymentTenureOrDefault(); got != Tenure1To2Yr {
		t.Errorf("EmploymentTenureOrDefault = %q, want %q", got, Tenure1To2Yr)
	}
	if got := p.CreditScoreOrDefault(); got != 650 {
		t.Errorf("CreditScoreOrDefault = %d, want 650", got)
	}
}

func TestUserProfileExplicitValues(t *testing.T) {
	p := UserProfile{
		CreditScore:      720,
		EmploymentType:   EmploymentFreelancer,
		EmploymentTenure: TenureUnder6Months,
	}

	if got := p.EmploymentTypeOrDefault(); got != EmploymentFreelancer {
		t.Errorf("EmploymentTypeOrDefault = %q, want %q", got, EmploymentFreelancer)
	}
	if got := p.EmploymentTenureOrDefault(); got != TenureUnder6Months {
		t.Errorf("EmploymentTenureOrDefault = %q, want %q", got, TenureUnder6Months)
	}
	if got := p.CreditScoreOrDefault(); got != 720 {
		t.Errorf("CreditScoreOrDefault = %d, want 720", got)
	}
}

func TestUserProfileJSONKeys(t *testing.T) {
	body := `{
		"monthlyIncome": 85000,
		"existingEmi": 12000,
		"creditScore": 710,
		"employmentType": "self_employed",
		"employmentTenure": "2-5yr",
		"loanAmount": 800000,
		"tenureYears": 7,
		"isJointApplication": true,
		"coborrowerIncome": 40000
	}`

	var p UserProfile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.MonthlyIncome != 85000 {
		t.Errorf("MonthlyIncome = %v", p.MonthlyIncome)
	}
	if p.EmploymentType != EmploymentSelfEmployed {
		t.Errorf("EmploymentType = %q", p.EmploymentType)
	}
	if !p.IsJointApplication || p.CoborrowerIncome != 40000 {
		t.Errorf("joint application fields not parsed: %+v", p)
	}
}

func TestPipelineResultStage(t *testing.T) {
	result := PipelineResult{
		Pipeline: "recovery",
		Order:    []string{"investigation", "strategy"},
		Stages: map[string]StageResult{
			"investigation": {Step: "investigation", Data: map[string]any{"severity": "High"}},
			"strategy":      {Step: "strategy", Degraded: true, Reason: "rate limit"},
		},
	}

	stage, ok := result.Stage("investigation")
	if !ok {
		t.Fatal("expected investigation stage")
	}
	if stage.Data["severity"] != "High" {
		t.Errorf("severity = %v", stage.Data["severity"])
	}

	if _, ok := result.Stage("missing"); ok {
		t.Error("expected missing stage lookup to fail")
	}
}

func TestPipelineResultDegradedCount(t *testing.T) {
	result := PipelineResult{
		Stages: map[string]StageResult{
			"a": {Step: "a"},
			"b": {Step: "b", Degraded: true},
			"c": {Step: "c", Degraded: true},
		},
	}
	if got := result.DegradedCount(); got != 2 {
		t.Errorf("DegradedCount = %d, want 2", got)
	}
}

func TestNewsArticleJSON(t *testing.T) {
	a := NewsArticle{
		Title:       "RBI holds repo rate at 6.5%",
		URL:         "https://example.com/rbi",
		Source:      "Moneycontrol Personal Finance",
		PublishedAt: time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got NewsArticle
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Title != a.Title || got.Source != a.Source {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

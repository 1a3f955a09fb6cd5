package usage

import (
	"context"
	"testing"
	"time"
)

// --- Mock ---

type mockBudgetReader struct {
	dailyLimit       int64
	monthlyLimit     int64
	dailyUsed        int64
	monthlyUsed      int64
	remainingDaily   int64
	remainingMonthly int64
}

func (m *mockBudgetReader) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudgetReader) MonthlyLimit() int64     { return m.monthlyLimit }
func (m *mockBudgetReader) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudgetReader) MonthlyUsed() int64      { return m.monthlyUsed }
func (m *mockBudgetReader) RemainingDaily() int64   { return m.remainingDaily }
func (m *mockBudgetReader) RemainingMonthly() int64 { return m.remainingMonthly }

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestService(br BudgetReader) *Service {
	s := New(br)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit:       10000,
		dailyUsed:        3000,
		remainingDaily:   7000,
		monthlyLimit:     100000,
		monthlyUsed:      50000,
		remainingMonthly: 50000,
	}
	r := newTestService(br).GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("expected period %q, got %q", PeriodDay, r.Period)
	}

	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart != dayStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", dayStart.UnixMilli(), r.PeriodStart)
	}
	if r.PeriodEnd != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("expected period end %d, got %d", dayStart.Add(24*time.Hour).UnixMilli(), r.PeriodEnd)
	}

	if r.TokensLimit != 10000 {
		t.Errorf("expected limit 10000, got %d", r.TokensLimit)
	}
	if r.Remaining != 7000 {
		t.Errorf("expected remaining 7000, got %d", r.Remaining)
	}
	if r.Exhausted {
		t.Error("budget should not be exhausted")
	}
	if r.TokensUsed != 3000 {
		t.Errorf("expected tokens 3000, got %d", r.TokensUsed)
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		monthlyLimit:     100000,
		monthlyUsed:      80000,
		remainingMonthly: 20000,
	}
	r := newTestService(br).GetReport(context.Background(), PeriodMonth)

	if r.Period != PeriodMonth {
		t.Errorf("expected period %q, got %q", PeriodMonth, r.Period)
	}

	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart != monthStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", monthStart.UnixMilli(), r.PeriodStart)
	}
	if r.PeriodEnd != monthStart.AddDate(0, 1, 0).UnixMilli() {
		t.Errorf("expected period end %d, got %d", monthStart.AddDate(0, 1, 0).UnixMilli(), r.PeriodEnd)
	}

	if r.TokensLimit != 100000 {
		t.Errorf("expected limit 100000, got %d", r.TokensLimit)
	}
	if r.TokensUsed != 80000 {
		t.Errorf("expected tokens 80000, got %d", r.TokensUsed)
	}
}

func TestGetReport_NilBudgetReader(t *testing.T) {
	r := newTestService(nil).GetReport(context.Background(), PeriodDay)

	if r.TokensLimit != -1 {
		t.Errorf("expected limit -1, got %d", r.TokensLimit)
	}
	if r.Remaining != -1 {
		t.Errorf("expected remaining -1, got %d", r.Remaining)
	}
	if r.Exhausted {
		t.Error("nil budget reader should not be exhausted")
	}
}

func TestGetReport_UnlimitedDaily(t *testing.T) {
	br := &mockBudgetReader{dailyUsed: 42, remainingDaily: -1}
	r := newTestService(br).GetReport(context.Background(), PeriodDay)

	if r.TokensLimit != -1 || r.Exhausted {
		t.Errorf("expected unlimited, got limit=%d exhausted=%v", r.TokensLimit, r.Exhausted)
	}
	if r.TokensUsed != 42 {
		t.Errorf("expected tokens 42, got %d", r.TokensUsed)
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit:     5000,
		dailyUsed:      5000,
		remainingDaily: 0,
	}
	r := newTestService(br).GetReport(context.Background(), PeriodDay)

	if !r.Exhausted {
		t.Error("budget should be exhausted when remaining is 0")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"month", PeriodMonth, false},
		{"total", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

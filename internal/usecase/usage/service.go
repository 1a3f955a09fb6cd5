// Package usage reports embedding token consumption against the configured budget.
package usage

import (
	"context"
	"fmt"
	"time"
)

// Period selects the reporting window.
type Period string

// Reporting windows.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("period must be day or month, got %q", s)
	}
}

// Report is token usage for one period. Limit and Remaining are -1 when unlimited.
type Report struct {
	Period      Period `json:"period"`
	PeriodStart int64  `json:"period_start"` // unix ms
	PeriodEnd   int64  `json:"period_end"`   // unix ms
	TokensUsed  int64  `json:"tokens_used"`
	TokensLimit int64  `json:"tokens_limit"`
	Remaining   int64  `json:"tokens_remaining"`
	Exhausted   bool   `json:"exhausted"`
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period, TokensLimit: -1, Remaining: -1}

	var start, end time.Time
	switch period {
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			r.TokensUsed = s.br.MonthlyUsed()
			r.TokensLimit = unlimited(s.br.MonthlyLimit())
			r.Remaining = s.br.RemainingMonthly()
		}
	default:
		r.Period = PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
		if s.br != nil {
			r.TokensUsed = s.br.DailyUsed()
			r.TokensLimit = unlimited(s.br.DailyLimit())
			r.Remaining = s.br.RemainingDaily()
		}
	}

	r.PeriodStart = start.UnixMilli()
	r.PeriodEnd = end.UnixMilli()
	r.Exhausted = r.TokensLimit > 0 && r.Remaining <= 0
	return r
}

func unlimited(limit int64) int64 {
	if limit <= 0 {
		return -1
	}
	return limit
}

package health

import (
	"context"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeCommand CheckType = "command"
	CheckTypeHTTP    CheckType = "http"
	CheckTypeTCP     CheckType = "tcp"
	CheckTypeDNS     CheckType = "dns"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Probe binds a checker to the component it reports on
type Probe struct {
	Component string
	Checker   Checker
}

// Report is the result of one probe
type Report struct {
	Component string
	Type      CheckType
	Result    Result
}

// RunAll runs every probe in order
func RunAll(ctx context.Context, probes []Probe) []Report {
	reports := make([]Report, 0, len(probes))
	for _, p := range probes {
		reports = append(reports, Report{
			Component: p.Component,
			Type:      p.Checker.Type(),
			Result:    p.Checker.Check(ctx),
		})
	}
	return reports
}

func failed(start time.Time, msg string) Result {
	return Result{
		Healthy:   false,
		Message:   msg,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

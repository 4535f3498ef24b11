// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "time"

// ReportEntry is one job type's outcome in a Report.
type ReportEntry struct {
	JobType  string   `json:"job_type"`
	Category Category `json:"category"`
	Code     string   `json:"code"`
	Reason   string   `json:"reason"`
}

// Report partitions the registered job types by whether tenantID
// could run them now.
type Report struct {
	TenantID    string        `json:"tenant_id"`
	Level       Level         `json:"automation_level"`
	GeneratedAt time.Time     `json:"generated_at"`
	Allowed     []ReportEntry `json:"allowed"`
	Blocked     []ReportEntry `json:"blocked"`
}

// GenerateReport evaluates every registered job type for tenantID as
// a dry run without a policy token. It raises no drift alerts, records
// no denials, writes no audit entries, and spends no budgets.
func (g *Guard) GenerateReport(tenantID string) Report {
	report := Report{
		TenantID:    tenantID,
		Level:       g.Policy(tenantID, "").AutomationLevel,
		GeneratedAt: g.clock.Now(),
	}
	for _, jobType := range g.registry.JobTypes() {
		decision := g.evaluate(tenantID, jobType, EvaluateOptions{IsDryRun: true}, false)
		entry := ReportEntry{
			JobType:  jobType,
			Category: decision.Category,
			Code:     decision.Code,
			Reason:   decision.Reason,
		}
		if decision.Allowed {
			report.Allowed = append(report.Allowed, entry)
		} else {
			report.Blocked = append(report.Blocked, entry)
		}
	}
	return report
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"sync"

	"github.com/bureau-foundation/jobgate/lib/fault"
)

// AcquireAction reserves one in-flight ACTION slot for tenantID under
// its MaxConcurrentActions limit. On success the caller must call
// release when the job finishes; release is idempotent. On denial
// release is a no-op and the denial is recorded like any other.
func (g *Guard) AcquireAction(tenantID string) (release func(), decision Decision) {
	policy := g.Policy(tenantID, "")
	decision = Decision{
		TenantID:     tenantID,
		Categorized:  true,
		Category:     Action,
		CurrentLevel: policy.AutomationLevel,
	}
	decision.RequiredLevel = Action.RequiredLevel()

	g.activeMutex.Lock()
	inFlight := g.active[tenantID]
	limit := policy.MaxConcurrentActions
	if g.enabled && limit > 0 && inFlight >= limit {
		g.activeMutex.Unlock()
		decision = deny(decision, fault.RateLimit, CodeConcurrencyLimit,
			"tenant %q already has %d of %d concurrent action jobs running", tenantID, inFlight, limit)
		g.record(AuditActionAcquire, decision, EvaluateOptions{})
		return func() {}, decision
	}
	g.active[tenantID] = inFlight + 1
	g.activeMutex.Unlock()

	decision.Allowed = true
	decision.Code = CodeAllowed
	decision.Reason = fmt.Sprintf("action slot %d acquired for tenant %q", inFlight+1, tenantID)
	if !g.enabled {
		decision.Permissive = true
		decision.Code = CodeGuardDisabled
		decision.Reason = "PERMISSIVE: " + decision.Reason
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.activeMutex.Lock()
			defer g.activeMutex.Unlock()
			if g.active[tenantID] > 1 {
				g.active[tenantID]--
			} else {
				delete(g.active, tenantID)
			}
		})
	}, decision
}

// ActiveActions returns the number of ACTION slots held for tenantID.
func (g *Guard) ActiveActions(tenantID string) int {
	g.activeMutex.Lock()
	defer g.activeMutex.Unlock()
	return g.active[tenantID]
}

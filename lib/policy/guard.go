// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bureau-foundation/jobgate/lib/audit"
	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/policytoken"
	"github.com/bureau-foundation/jobgate/lib/ratelimit"
	"github.com/bureau-foundation/jobgate/lib/ringlog"
)

// DenialCapacity is the number of denials retained per tenant.
const DenialCapacity = 100

// Audit actions written by the guard.
const (
	AuditActionEvaluate = "policy.evaluate"
	AuditActionAcquire  = "policy.acquire_action"
)

// Options configures a Guard.
type Options struct {
	// Enabled turns the guard on. A disabled guard allows everything
	// permissively.
	Enabled bool

	// ActionJobsEnabled is the global switch for ACTION jobs.
	ActionJobsEnabled bool

	// RequirePolicyTokens forces a policy token for every ACTION job
	// regardless of tenant policy.
	RequirePolicyTokens bool

	// Codec verifies policy tokens. Required when RequirePolicyTokens
	// is set.
	Codec *policytoken.Codec

	// Registry classifies job types. Nil uses DefaultCatalog.
	Registry *Registry

	// Limiter counts job starts. Nil creates a private limiter.
	Limiter *ratelimit.Limiter

	// RateLimits gives per-job-type budgets.
	RateLimits ratelimit.Table

	// Policies are installed at construction and restored by Reset.
	Policies []TenantPolicy

	Audit  *audit.Log
	Clock  clock.Clock
	Logger *slog.Logger
}

// EvaluateOptions carries the per-request inputs to Evaluate.
type EvaluateOptions struct {
	ProjectID   string
	PolicyToken string
	IsDryRun    bool
	ActorID     string
}

// Guard evaluates job requests against tenant policies.
type Guard struct {
	enabled             bool
	actionJobsEnabled   bool
	requirePolicyTokens bool

	codec      *policytoken.Codec
	registry   *Registry
	limiter    *ratelimit.Limiter
	rateLimits ratelimit.Table
	audit      *audit.Log
	clock      clock.Clock
	logger     *slog.Logger

	initialPolicies []TenantPolicy

	policyMutex sync.RWMutex
	policies    map[string]TenantPolicy

	// spendMutex serializes the check-then-spend of rate budgets and
	// single-use tokens for real runs.
	spendMutex sync.Mutex

	activeMutex sync.Mutex
	active      map[string]int

	denials     *ringlog.Keyed[Denial]
	driftAlerts *ringlog.Keyed[DriftAlert]
}

// New constructs a Guard. It fails with a configuration fault when
// tokens are required but no codec is available, or when a configured
// policy is invalid.
func New(options Options) (*Guard, error) {
	if options.RequirePolicyTokens && options.Codec == nil {
		return nil, fault.Configurationf("policy tokens are required but no signing secret is configured")
	}

	guardClock := options.Clock
	if guardClock == nil {
		guardClock = clock.Real()
	}
	registry := options.Registry
	if registry == nil {
		registry = NewRegistry(DefaultCatalog())
	}
	limiter := options.Limiter
	if limiter == nil {
		limiter = ratelimit.New(guardClock)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	guard := &Guard{
		enabled:             options.Enabled,
		actionJobsEnabled:   options.ActionJobsEnabled,
		requirePolicyTokens: options.RequirePolicyTokens,
		codec:               options.Codec,
		registry:            registry,
		limiter:             limiter,
		rateLimits:          options.RateLimits,
		audit:               options.Audit,
		clock:               guardClock,
		logger:              logger,
		policies:            make(map[string]TenantPolicy),
		active:              make(map[string]int),
		denials:             ringlog.NewKeyed[Denial](DenialCapacity),
		driftAlerts:         ringlog.NewKeyed[DriftAlert](0),
	}
	for _, policy := range options.Policies {
		if err := guard.SetPolicy(policy); err != nil {
			return nil, fault.Configurationf("tenant %q: %v", policy.TenantID, err)
		}
		guard.initialPolicies = append(guard.initialPolicies, policy.clone())
	}
	return guard, nil
}

// Registry returns the job category registry.
func (g *Guard) Registry() *Registry { return g.registry }

// Evaluate decides whether jobType may run for tenantID. It never
// fails: every outcome, including misconfiguration, is a Decision.
// Denials are recorded and every decision is audited.
func (g *Guard) Evaluate(tenantID, jobType string, options EvaluateOptions) Decision {
	decision := g.evaluate(tenantID, jobType, options, true)
	g.record(AuditActionEvaluate, decision, options)
	return decision
}

// evaluate runs the decision sequence. live is false for report
// generation, which must not raise drift alerts or touch budgets.
func (g *Guard) evaluate(tenantID, jobType string, options EvaluateOptions, live bool) Decision {
	decision := Decision{
		TenantID:  tenantID,
		ProjectID: options.ProjectID,
		JobType:   jobType,
		DryRun:    options.IsDryRun,
	}
	if category, ok := g.registry.Lookup(jobType); ok {
		decision.Categorized = true
		decision.Category = category
		decision.RequiredLevel = category.RequiredLevel()
	}

	if !g.enabled {
		decision.Allowed = true
		decision.Permissive = true
		decision.Code = CodeGuardDisabled
		decision.Reason = fmt.Sprintf("PERMISSIVE: policy guard disabled, job type %q allowed without evaluation", jobType)
		if live {
			g.logger.Warn("policy guard disabled, allowing job without evaluation",
				"tenant_id", tenantID,
				"job_type", jobType,
			)
		}
		return decision
	}

	policy := g.Policy(tenantID, options.ProjectID)
	decision.CurrentLevel = policy.AutomationLevel

	if policy.Blocks(jobType) {
		return deny(decision, fault.Authorization, CodeJobTypeBlocked,
			"job type %q is blocked for tenant %q", jobType, tenantID)
	}
	if !policy.Permits(jobType) {
		return deny(decision, fault.Authorization, CodeJobTypeNotAllowed,
			"job type %q is not in the allowed job types for tenant %q", jobType, tenantID)
	}

	if !decision.Categorized {
		if live {
			g.raiseDrift(tenantID, jobType)
		}
		return deny(decision, fault.Authorization, CodeUncategorizedJobType,
			"job type %q has no registered category", jobType)
	}

	if !policy.AutomationLevel.AtLeast(decision.RequiredLevel) {
		return deny(decision, fault.Authorization, CodeInsufficientAutomationLevel,
			"job type %q (%s) requires %s, tenant %q is at %s",
			jobType, decision.Category, decision.RequiredLevel, tenantID, policy.AutomationLevel)
	}

	isAction := decision.Category == Action
	if isAction {
		if denied, ok := g.checkActionToken(&decision, policy, options); !ok {
			return denied
		}
	}

	if options.IsDryRun && policy.AutomationLevel.AtLeast(RecommendOnly) {
		decision.Allowed = true
		decision.Code = CodeDryRun
		decision.Reason = fmt.Sprintf("dry run of %q permitted at %s", jobType, policy.AutomationLevel)
		return decision
	}

	// Dry runs and reports only peek at budgets. A real run holds
	// spendMutex from the first peek to the last Check, and spends
	// nothing until the token has been redeemed.
	spend := live && !options.IsDryRun
	if spend {
		g.spendMutex.Lock()
		defer g.spendMutex.Unlock()
	}
	budgets := g.budgets(policy, tenantID, jobType, isAction)
	for _, entry := range budgets {
		if result := g.limiter.Peek(entry.key, entry.max, entry.window); !result.Allowed {
			return deny(decision, fault.RateLimit, CodeRateLimited,
				"%s, resets at %s", entry.exceeded, result.ResetAt.UTC().Format(time.RFC3339))
		}
	}
	if spend {
		if isAction && options.PolicyToken != "" {
			result := g.codec.Authorize(options.PolicyToken, g.tokenRequirement(tenantID, jobType), true)
			if !result.Valid {
				return g.tokenDenial(decision, result)
			}
		}
		for _, entry := range budgets {
			g.limiter.Check(entry.key, entry.max, entry.window)
		}
	}

	decision.Allowed = true
	decision.Code = CodeAllowed
	decision.Reason = fmt.Sprintf("job type %q (%s) permitted at %s", jobType, decision.Category, policy.AutomationLevel)
	return decision
}

// checkActionToken applies the ACTION-only gates without consuming
// the token.
func (g *Guard) checkActionToken(decision *Decision, policy TenantPolicy, options EvaluateOptions) (Decision, bool) {
	if !g.actionJobsEnabled {
		return deny(*decision, fault.Authorization, CodeActionJobsDisabled,
			"action jobs are disabled, job type %q cannot run", decision.JobType), false
	}

	decision.RequiresPolicyToken = policy.RequirePolicyTokenForActions || g.requirePolicyTokens
	if options.PolicyToken == "" {
		if decision.RequiresPolicyToken {
			return deny(*decision, fault.Authorization, CodePolicyTokenRequired,
				"policy token required for action job type %q", decision.JobType), false
		}
		return Decision{}, true
	}

	if g.codec == nil {
		return deny(*decision, fault.Configuration, fault.CodeConfiguration,
			"policy token presented but no signing secret is configured"), false
	}
	result := g.codec.Authorize(options.PolicyToken, g.tokenRequirement(decision.TenantID, decision.JobType), false)
	if !result.Valid {
		return g.tokenDenial(*decision, result), false
	}
	valid := true
	decision.PolicyTokenValid = &valid
	decision.Scopes = result.Claims.Scopes
	return Decision{}, true
}

func (g *Guard) tokenRequirement(tenantID, jobType string) policytoken.Requirement {
	return policytoken.Requirement{
		TenantID: tenantID,
		Scopes:   []string{policytoken.ScopeActionExecute},
		Action:   jobType,
	}
}

func (g *Guard) tokenDenial(decision Decision, result policytoken.Result) Decision {
	valid := false
	decision.PolicyTokenValid = &valid
	if result.Claims != nil {
		decision.Scopes = result.Claims.Scopes
	}
	return deny(decision, result.Kind, result.Code, "policy token rejected: %s", result.Reason)
}

// budget is one rate window an allowed run counts against.
type budget struct {
	key      string
	max      int
	window   time.Duration
	exceeded string
}

func (g *Guard) budgets(policy TenantPolicy, tenantID, jobType string, isAction bool) []budget {
	var budgets []budget
	if isAction && policy.ActionRateLimitPerHour > 0 {
		exceeded := fmt.Sprintf("tenant %q exceeded %d action jobs per hour", tenantID, policy.ActionRateLimitPerHour)
		budgets = append(budgets, budget{
			key:      "action:" + tenantID,
			max:      policy.ActionRateLimitPerHour,
			window:   time.Hour,
			exceeded: exceeded,
		})
	}
	if rule, ok := g.rateLimits.Lookup(jobType); ok {
		exceeded := fmt.Sprintf("job type %q exceeded %d runs per %s for tenant %q",
			jobType, rule.Max, rule.Window, tenantID)
		budgets = append(budgets, budget{
			key:      "job:" + tenantID + ":" + jobType,
			max:      rule.Max,
			window:   rule.Window,
			exceeded: exceeded,
		})
	}
	return budgets
}

func deny(decision Decision, kind fault.Kind, code, format string, args ...any) Decision {
	decision.Allowed = false
	decision.Kind = kind
	decision.Code = code
	decision.Reason = fmt.Sprintf(format, args...)
	return decision
}

func (g *Guard) raiseDrift(tenantID, jobType string) {
	alert := DriftAlert{
		TenantID:  tenantID,
		JobType:   jobType,
		Severity:  SeverityCritical,
		Message:   fmt.Sprintf("job type %q reached the policy guard without a registered category", jobType),
		Timestamp: g.clock.Now(),
	}
	g.driftAlerts.Append(tenantID, alert)
	g.logger.Error("job category drift",
		"tenant_id", tenantID,
		"job_type", jobType,
		"severity", string(alert.Severity),
	)
}

func (g *Guard) record(action string, decision Decision, options EvaluateOptions) {
	if !decision.Allowed {
		g.denials.Append(decision.TenantID, Denial{
			TenantID:  decision.TenantID,
			ProjectID: decision.ProjectID,
			ActorID:   options.ActorID,
			JobType:   decision.JobType,
			Code:      decision.Code,
			Reason:    decision.Reason,
			DryRun:    decision.DryRun,
			Timestamp: g.clock.Now(),
		})
		g.logger.Info("policy denied job",
			"tenant_id", decision.TenantID,
			"job_type", decision.JobType,
			"code", decision.Code,
			"reason", decision.Reason,
		)
	}

	if !g.audit.Enabled() {
		return
	}
	auditDecision := audit.Allow
	if !decision.Allowed {
		auditDecision = audit.Deny
	}
	metadata := map[string]any{
		"code":          decision.Code,
		"current_level": decision.CurrentLevel.String(),
		"dry_run":       decision.DryRun,
		"permissive":    decision.Permissive,
		"auth_required": decision.RequiresPolicyToken,
	}
	if decision.Categorized {
		metadata["category"] = decision.Category.String()
		metadata["required_level"] = decision.RequiredLevel.String()
	}
	if decision.ProjectID != "" {
		metadata["project_id"] = decision.ProjectID
	}
	if decision.PolicyTokenValid != nil {
		metadata["auth_valid"] = *decision.PolicyTokenValid
	}
	g.audit.Write(audit.Entry{
		TenantID: decision.TenantID,
		ActorID:  options.ActorID,
		Action:   action,
		Resource: decision.JobType,
		Decision: auditDecision,
		Reason:   decision.Reason,
		Metadata: metadata,
	})
}

// SetPolicy installs or overwrites a tenant (or project) policy.
func (g *Guard) SetPolicy(policy TenantPolicy) error {
	if policy.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if !policy.AutomationLevel.Valid() {
		return fmt.Errorf("invalid automation level %d", int(policy.AutomationLevel))
	}
	if policy.MaxConcurrentActions < 0 || policy.ActionRateLimitPerHour < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	g.policyMutex.Lock()
	defer g.policyMutex.Unlock()
	g.policies[policyKey(policy.TenantID, policy.ProjectID)] = policy.clone()
	return nil
}

// Policy resolves the policy for tenantID, preferring a
// project-specific one. A tenant seen for the first time receives
// DefaultPolicy, which is stored.
func (g *Guard) Policy(tenantID, projectID string) TenantPolicy {
	g.policyMutex.RLock()
	if projectID != "" {
		if policy, ok := g.policies[policyKey(tenantID, projectID)]; ok {
			g.policyMutex.RUnlock()
			return policy.clone()
		}
	}
	policy, ok := g.policies[tenantID]
	g.policyMutex.RUnlock()
	if ok {
		return policy.clone()
	}

	g.policyMutex.Lock()
	defer g.policyMutex.Unlock()
	if policy, ok = g.policies[tenantID]; !ok {
		policy = DefaultPolicy(tenantID)
		g.policies[tenantID] = policy
	}
	return policy.clone()
}

// Policies returns every stored policy ordered by tenant then project.
func (g *Guard) Policies() []TenantPolicy {
	g.policyMutex.RLock()
	defer g.policyMutex.RUnlock()
	policies := make([]TenantPolicy, 0, len(g.policies))
	for _, policy := range g.policies {
		policies = append(policies, policy.clone())
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].TenantID != policies[j].TenantID {
			return policies[i].TenantID < policies[j].TenantID
		}
		return policies[i].ProjectID < policies[j].ProjectID
	})
	return policies
}

// Denials returns tenantID's retained denials, oldest first.
func (g *Guard) Denials(tenantID string) []Denial {
	return g.denials.List(tenantID)
}

// DriftAlerts returns tenantID's drift alerts, oldest first.
func (g *Guard) DriftAlerts(tenantID string) []DriftAlert {
	return g.driftAlerts.List(tenantID)
}

// ResetDriftAlerts clears tenantID's drift alerts, or every tenant's
// when tenantID is empty.
func (g *Guard) ResetDriftAlerts(tenantID string) {
	if tenantID == "" {
		g.driftAlerts.Reset()
		return
	}
	g.driftAlerts.ResetKey(tenantID)
}

// Reset restores the guard to its constructed state: configured
// policies only, no denials, no drift alerts, no in-flight actions.
// The shared rate limiter is left to its owner.
func (g *Guard) Reset() {
	g.policyMutex.Lock()
	g.policies = make(map[string]TenantPolicy, len(g.initialPolicies))
	for _, policy := range g.initialPolicies {
		g.policies[policyKey(policy.TenantID, policy.ProjectID)] = policy.clone()
	}
	g.policyMutex.Unlock()

	g.activeMutex.Lock()
	g.active = make(map[string]int)
	g.activeMutex.Unlock()

	g.denials.Reset()
	g.driftAlerts.Reset()
}

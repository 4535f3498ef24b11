// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLevelOrdering(t *testing.T) {
	ordered := []Level{ObserveOnly, RecommendOnly, ExecuteNonAction, ExecuteAction}
	for index := 1; index < len(ordered); index++ {
		if !ordered[index].AtLeast(ordered[index-1]) || ordered[index-1].AtLeast(ordered[index]) {
			t.Errorf("%s and %s are misordered", ordered[index-1], ordered[index])
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"OBSERVE_ONLY":       ObserveOnly,
		"recommend_only":     RecommendOnly,
		"execute-non-action": ExecuteNonAction,
		" EXECUTE_ACTION ":   ExecuteAction,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseLevel("ROOT"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
	if Level(9).String() != "Level(9)" || Level(9).Valid() {
		t.Error("out-of-range level should be invalid")
	}
}

func TestCategoryRequiredLevel(t *testing.T) {
	tests := []struct {
		category Category
		want     Level
	}{
		{Read, ObserveOnly},
		{Analyze, ObserveOnly},
		{Recommend, RecommendOnly},
		{Notify, RecommendOnly},
		{Action, ExecuteAction},
	}
	for _, test := range tests {
		if got := test.category.RequiredLevel(); got != test.want {
			t.Errorf("%s.RequiredLevel() = %s, want %s", test.category, got, test.want)
		}
	}
}

func TestPolicyYAML(t *testing.T) {
	input := `
tenant_id: acme
automation_level: execute_action
allowed_job_types: [pr.create]
require_policy_token_for_actions: true
max_concurrent_actions: 2
`
	var policy TenantPolicy
	if err := yaml.Unmarshal([]byte(input), &policy); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if policy.AutomationLevel != ExecuteAction || policy.MaxConcurrentActions != 2 || !policy.RequirePolicyTokenForActions {
		t.Errorf("policy = %+v", policy)
	}

	output, err := yaml.Marshal(policy)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var again TenantPolicy
	if err := yaml.Unmarshal(output, &again); err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	if again.AutomationLevel != ExecuteAction {
		t.Errorf("level after round trip = %s", again.AutomationLevel)
	}

	if err := yaml.Unmarshal([]byte("automation_level: superuser\n"), &policy); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(map[string]Category{"b.job": Read, "a.job": Action})
	if category, ok := registry.Lookup("a.job"); !ok || category != Action {
		t.Errorf("Lookup(a.job) = %v, %v", category, ok)
	}
	if _, ok := registry.Lookup("c.job"); ok {
		t.Error("unregistered job type found")
	}
	if err := registry.Register("c.job", Notify); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register("", Notify); err == nil {
		t.Error("empty job type accepted")
	}
	if err := registry.Register("d.job", Category(42)); err == nil {
		t.Error("invalid category accepted")
	}
	got := registry.JobTypes()
	if len(got) != 3 || got[0] != "a.job" || got[2] != "c.job" {
		t.Errorf("JobTypes = %v", got)
	}
}

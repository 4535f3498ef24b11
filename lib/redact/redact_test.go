// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"testing"
)

func TestMap_SensitiveKeys(t *testing.T) {
	input := map[string]any{
		"policy_token":   "pt_abc_def",
		"Authorization":  "Bearer xyz",
		"api_key":        "k-123",
		"job_type":       "deploy.rollback",
		"cooldown_ms":    int64(3000),
		"clientSecret":   "s",
		"DB_PASSWORD":    "hunter2",
		"session_cookie": "c",
	}
	result := Map(input)

	for _, key := range []string{"policy_token", "Authorization", "api_key", "clientSecret", "DB_PASSWORD", "session_cookie"} {
		if result[key] != Placeholder {
			t.Errorf("%s = %v, want redacted", key, result[key])
		}
	}
	if result["job_type"] != "deploy.rollback" {
		t.Errorf("job_type = %v", result["job_type"])
	}
	if result["cooldown_ms"] != int64(3000) {
		t.Errorf("cooldown_ms = %v", result["cooldown_ms"])
	}
	if input["policy_token"] != "pt_abc_def" {
		t.Error("input map was modified")
	}
}

func TestMap_CredentialLookingValues(t *testing.T) {
	result := Map(map[string]any{
		"note":   "pt_eyJqdGkiOi_sig",
		"header": "bearer abc.def",
		"args":   []string{"--verbose", "pt_leak"},
	})
	if result["note"] != "pt_"+Placeholder {
		t.Errorf("note = %v", result["note"])
	}
	if result["header"] != "bearer "+Placeholder {
		t.Errorf("header = %v", result["header"])
	}
	args := result["args"].([]string)
	if args[0] != "--verbose" || args[1] != "pt_"+Placeholder {
		t.Errorf("args = %v", args)
	}
}

func TestMap_Nested(t *testing.T) {
	result := Map(map[string]any{
		"request": map[string]any{
			"headers": map[string]string{"Cookie": "session=1", "Accept": "json"},
			"items":   []any{map[string]any{"password": "x", "name": "n"}},
		},
	})
	request := result["request"].(map[string]any)
	headers := request["headers"].(map[string]any)
	if headers["Cookie"] != Placeholder || headers["Accept"] != "json" {
		t.Errorf("headers = %v", headers)
	}
	item := request["items"].([]any)[0].(map[string]any)
	if item["password"] != Placeholder || item["name"] != "n" {
		t.Errorf("item = %v", item)
	}
}

func TestMap_DepthLimit(t *testing.T) {
	deep := map[string]any{"leaf": "value"}
	for range MaxDepth + 2 {
		deep = map[string]any{"next": deep}
	}
	result := Map(deep)
	current := result
	for depth := 0; ; depth++ {
		next, ok := current["next"].(map[string]any)
		if !ok {
			if current["next"] != Placeholder {
				t.Fatalf("at depth %d got %v, want placeholder", depth, current["next"])
			}
			break
		}
		current = next
		if depth > MaxDepth+2 {
			t.Fatal("depth limit not applied")
		}
	}
}

func TestMap_Nil(t *testing.T) {
	if Map(nil) != nil {
		t.Error("Map(nil) should be nil")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"strings"
)

// Placeholder replaces redacted values.
const Placeholder = "[REDACTED]"

// MaxDepth bounds recursion into nested values.
const MaxDepth = 8

var sensitiveFragments = []string{
	"secret",
	"token",
	"password",
	"passwd",
	"authorization",
	"api_key",
	"apikey",
	"cookie",
	"credential",
	"private_key",
}

// SensitiveKey reports whether values under key must never be logged.
func SensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// String masks a value that looks like a credential and returns
// anything else unchanged.
func String(value string) string {
	switch {
	case strings.HasPrefix(value, "pt_"):
		return "pt_" + Placeholder
	case len(value) > 7 && strings.EqualFold(value[:7], "bearer "):
		return value[:7] + Placeholder
	default:
		return value
	}
}

// Map returns a redacted deep copy of metadata. A nil map returns
// nil.
func Map(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	return redactMap(metadata, 0)
}

func redactMap(metadata map[string]any, depth int) map[string]any {
	result := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if SensitiveKey(key) {
			result[key] = Placeholder
			continue
		}
		result[key] = redactValue(value, depth+1)
	}
	return result
}

func redactValue(value any, depth int) any {
	if depth > MaxDepth {
		return Placeholder
	}
	switch typed := value.(type) {
	case string:
		return String(typed)
	case map[string]any:
		return redactMap(typed, depth)
	case map[string]string:
		converted := make(map[string]any, len(typed))
		for key, inner := range typed {
			converted[key] = inner
		}
		return redactMap(converted, depth)
	case []any:
		result := make([]any, len(typed))
		for index, inner := range typed {
			result[index] = redactValue(inner, depth+1)
		}
		return result
	case []string:
		result := make([]string, len(typed))
		for index, inner := range typed {
			result[index] = String(inner)
		}
		return result
	default:
		return value
	}
}

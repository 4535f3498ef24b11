// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policytoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/fault"
)

var epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) (*Codec, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	codec, err := NewCodec([]byte("test-signing-secret"), fake)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec, fake
}

func issue(t *testing.T, codec *Codec, options IssueOptions, scopes ...string) string {
	t.Helper()
	token, _, err := codec.Issue("actor-1", "tenant-a", scopes, options)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestIssueAndVerify(t *testing.T) {
	codec, _ := newTestCodec(t)
	token, issued, err := codec.Issue("actor-1", "tenant-a", []string{"jobs:*"}, IssueOptions{
		ProjectID:    "proj-9",
		TTL:          2 * time.Hour,
		AllowedTools: []string{"deploy.rollback"},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(token, Prefix) {
		t.Fatalf("token %q missing prefix", token)
	}
	if strings.Contains(token, "=") {
		t.Errorf("token %q contains padding", token)
	}
	if issued.ExpiresAt-issued.IssuedAt != int64((2 * time.Hour).Seconds()) {
		t.Errorf("exp-iat = %d, want 7200", issued.ExpiresAt-issued.IssuedAt)
	}

	result := codec.Verify(token)
	if !result.Valid {
		t.Fatalf("Verify: %s (%s)", result.Code, result.Reason)
	}
	claims := result.Claims
	if claims.Subject != "actor-1" || claims.TenantID != "tenant-a" || claims.ProjectID != "proj-9" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Type != TokenType || claims.ID == "" {
		t.Errorf("type=%q jti=%q", claims.Type, claims.ID)
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v, want nil", result.Err())
	}
}

func TestIssueCopiesCallerSlices(t *testing.T) {
	codec, _ := newTestCodec(t)
	scopes := []string{ScopeActionExecute}
	tools := []string{"deploy.rollback"}
	token, claims, err := codec.Issue("actor-1", "tenant-a", scopes, IssueOptions{AllowedTools: tools})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	scopes[0] = "repo:*"
	tools[0] = "pr.create"

	if claims.Scopes[0] != ScopeActionExecute || claims.AllowedTools[0] != "deploy.rollback" {
		t.Errorf("claims follow caller slices: scopes=%v tools=%v", claims.Scopes, claims.AllowedTools)
	}
	if result := codec.Verify(token); !result.Valid || !result.Claims.AllowsTool("deploy.rollback") {
		t.Errorf("Verify = %+v", result)
	}
}

func TestPayloadFieldNames(t *testing.T) {
	codec, _ := newTestCodec(t)
	token := issue(t, codec, IssueOptions{ProjectID: "p", AllowedTools: []string{"x"}, SingleUse: true}, "a:b")

	body := token[len(Prefix):]
	payloadSegment := body[:len(body)-signatureEncodedLength-1]
	payload, err := base64.RawURLEncoding.DecodeString(payloadSegment)
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	for _, name := range []string{"jti", "sub", "tenant_id", "project_id", "scopes", "iat", "exp", "type", "allowed_tools", "single_use"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("payload missing field %q: %v", name, fields)
		}
	}
	if len(fields) != 10 {
		t.Errorf("payload has %d fields, want 10", len(fields))
	}
}

func TestVerifyExpiry(t *testing.T) {
	codec, fake := newTestCodec(t)
	token := issue(t, codec, IssueOptions{TTL: time.Hour}, "jobs:read")

	// exp == now is still valid: only exp < now is expired.
	fake.Advance(time.Hour)
	if result := codec.Verify(token); !result.Valid {
		t.Fatalf("at exp: %s, want valid", result.Code)
	}

	fake.Advance(time.Second)
	result := codec.Verify(token)
	if result.Valid || result.Code != CodeExpired {
		t.Fatalf("after exp: valid=%v code=%s, want EXPIRED", result.Valid, result.Code)
	}
	if result.Kind != fault.Authentication {
		t.Errorf("Kind = %v, want authentication", result.Kind)
	}
	if result.Claims == nil || result.Claims.Subject != "actor-1" {
		t.Error("expired result should still carry decoded claims")
	}
}

func TestVerifyFlippedPayloadByte(t *testing.T) {
	codec, _ := newTestCodec(t)
	token := issue(t, codec, IssueOptions{}, "jobs:read")

	payloadEnd := len(token) - signatureEncodedLength - 1
	for index := len(Prefix); index < payloadEnd; index++ {
		replacement := byte('A')
		if token[index] == 'A' {
			replacement = 'B'
		}
		tampered := token[:index] + string(replacement) + token[index+1:]
		result := codec.Verify(tampered)
		if result.Code != CodeInvalidSignature {
			t.Fatalf("flip at %d: code %s, want INVALID_SIGNATURE", index, result.Code)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	codec, fake := newTestCodec(t)
	token := issue(t, codec, IssueOptions{}, "jobs:read")

	other, err := NewCodec([]byte("another-secret"), fake)
	if err != nil {
		t.Fatal(err)
	}
	if result := other.Verify(token); result.Code != CodeInvalidSignature {
		t.Errorf("code = %s, want INVALID_SIGNATURE", result.Code)
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	codec, _ := newTestCodec(t)
	valid := issue(t, codec, IssueOptions{}, "jobs:read")

	tests := map[string]string{
		"empty":             "",
		"wrong prefix":      "xx_" + valid[len(Prefix):],
		"no segments":       "pt_",
		"missing signature": "pt_abc",
		"short signature":   valid[:len(valid)-3],
		"no payload":        "pt__" + strings.Repeat("A", signatureEncodedLength),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			result := codec.Verify(token)
			if result.Valid {
				t.Fatal("malformed token verified")
			}
			if result.Code != CodeInvalidFormat && result.Code != CodeInvalidSignature {
				t.Errorf("code = %s, want INVALID_FORMAT or INVALID_SIGNATURE", result.Code)
			}
		})
	}

	// A missing prefix is always a format failure, never a signature one.
	if result := codec.Verify("token"); result.Code != CodeInvalidFormat {
		t.Errorf("no prefix: code = %s", result.Code)
	}
}

func TestVerifySignedGarbagePayload(t *testing.T) {
	codec, _ := newTestCodec(t)

	signed := func(payload string) string {
		segment := base64.RawURLEncoding.EncodeToString([]byte(payload))
		return Prefix + segment + "_" + codec.sign(segment)
	}

	if result := codec.Verify(signed("not json")); result.Code != CodeInvalidFormat {
		t.Errorf("non-JSON payload: code = %s, want INVALID_FORMAT", result.Code)
	}
	if result := codec.Verify(signed(`{"type":"session","exp":9999999999}`)); result.Code != CodeInvalidFormat {
		t.Errorf("wrong type: code = %s, want INVALID_FORMAT", result.Code)
	}

	// Correctly signed payload segment that is not base64url.
	segment := "!!!"
	token := Prefix + segment + "_" + codec.sign(segment)
	if result := codec.Verify(token); result.Code != CodeInvalidFormat {
		t.Errorf("bad base64: code = %s, want INVALID_FORMAT", result.Code)
	}
}

func TestSingleUseRedeemsOnce(t *testing.T) {
	codec, _ := newTestCodec(t)
	token := issue(t, codec, IssueOptions{SingleUse: true}, "action:execute")

	if result := codec.Verify(token); !result.Valid {
		t.Fatalf("first verify: %s", result.Code)
	}
	result := codec.Verify(token)
	if result.Valid || result.Code != CodeAlreadyUsed {
		t.Fatalf("second verify: valid=%v code=%s, want ALREADY_USED", result.Valid, result.Code)
	}
	if result.Kind != fault.Replay {
		t.Errorf("Kind = %v, want replay", result.Kind)
	}
	if !errors.Is(result.Err(), &fault.Error{Kind: fault.Replay, Code: CodeAlreadyUsed}) {
		t.Errorf("Err() = %v, want ALREADY_USED replay fault", result.Err())
	}
}

func TestSingleUseConcurrentRedemption(t *testing.T) {
	codec, _ := newTestCodec(t)
	token := issue(t, codec, IssueOptions{SingleUse: true}, "action:execute")

	var successes atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if codec.Verify(token).Valid {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	if successes.Load() != 1 {
		t.Errorf("single-use token redeemed %d times, want 1", successes.Load())
	}
}

func TestFailedVerificationDoesNotConsume(t *testing.T) {
	codec, fake := newTestCodec(t)
	token := issue(t, codec, IssueOptions{SingleUse: true, TTL: time.Hour}, "jobs:read")

	// A scope failure happens before redemption.
	result := codec.Authorize(token, Requirement{TenantID: "tenant-a", Scopes: []string{ScopeActionExecute}}, true)
	if result.Code != CodeInsufficientScope {
		t.Fatalf("code = %s, want INSUFFICIENT_SCOPE", result.Code)
	}
	if codec.Replay().IsConsumed(token) {
		t.Fatal("scope failure consumed the token")
	}

	// A tampered copy never touches the replay set.
	last := byte('A')
	if token[len(token)-1] == 'A' {
		last = 'B'
	}
	if result := codec.Verify(token[:len(token)-1] + string(last)); result.Code != CodeInvalidSignature {
		t.Fatalf("tampered signature: code = %s, want INVALID_SIGNATURE", result.Code)
	}
	if codec.Replay().Len() != 0 {
		t.Fatal("signature failure recorded a redemption")
	}

	// An expired single-use token is rejected without being recorded.
	fake.Advance(2 * time.Hour)
	if result := codec.Verify(token); result.Code != CodeExpired {
		t.Fatalf("code = %s, want EXPIRED", result.Code)
	}
	if codec.Replay().Len() != 0 {
		t.Fatal("expired token was recorded")
	}
}

func TestInspectDoesNotConsume(t *testing.T) {
	codec, _ := newTestCodec(t)
	token := issue(t, codec, IssueOptions{SingleUse: true}, "action:execute")

	for range 3 {
		if result := codec.Inspect(token); !result.Valid {
			t.Fatalf("Inspect: %s", result.Code)
		}
	}
	if !codec.Verify(token).Valid {
		t.Fatal("Verify after Inspect should succeed")
	}
	if result := codec.Inspect(token); result.Code != CodeAlreadyUsed {
		t.Errorf("Inspect after redemption: code = %s, want ALREADY_USED", result.Code)
	}
}

func TestAuthorize(t *testing.T) {
	codec, _ := newTestCodec(t)
	requirement := Requirement{TenantID: "tenant-a", Scopes: []string{ScopeActionExecute}, Action: "deploy.rollback"}

	t.Run("allowed", func(t *testing.T) {
		token := issue(t, codec, IssueOptions{AllowedTools: []string{"deploy.rollback"}}, "action:*")
		if result := codec.Authorize(token, requirement, true); !result.Valid {
			t.Fatalf("Authorize: %s (%s)", result.Code, result.Reason)
		}
	})

	t.Run("unrestricted tools", func(t *testing.T) {
		token := issue(t, codec, IssueOptions{}, ScopeActionExecute)
		if result := codec.Authorize(token, requirement, true); !result.Valid {
			t.Fatalf("Authorize: %s (%s)", result.Code, result.Reason)
		}
	})

	t.Run("tenant mismatch", func(t *testing.T) {
		token := issue(t, codec, IssueOptions{}, ScopeActionExecute)
		other := requirement
		other.TenantID = "tenant-b"
		result := codec.Authorize(token, other, true)
		if result.Code != CodeTenantMismatch || result.Kind != fault.Authorization {
			t.Errorf("code=%s kind=%v, want TENANT_MISMATCH authorization", result.Code, result.Kind)
		}
	})

	t.Run("missing scope", func(t *testing.T) {
		token := issue(t, codec, IssueOptions{}, "jobs:*")
		result := codec.Authorize(token, requirement, true)
		if result.Code != CodeInsufficientScope {
			t.Fatalf("code = %s, want INSUFFICIENT_SCOPE", result.Code)
		}
		if !strings.Contains(result.Reason, ScopeActionExecute) || !strings.Contains(result.Reason, "deploy.rollback") {
			t.Errorf("Reason = %q, want missing scope and action", result.Reason)
		}
	})

	t.Run("action not allowed", func(t *testing.T) {
		token := issue(t, codec, IssueOptions{AllowedTools: []string{"issue.close"}}, ScopeActionExecute)
		if result := codec.Authorize(token, requirement, true); result.Code != CodeActionNotAllowed {
			t.Errorf("code = %s, want ACTION_NOT_ALLOWED", result.Code)
		}
	})
}

func TestValidIffUnexpiredAndUnconsumed(t *testing.T) {
	for _, singleUse := range []bool{false, true} {
		for _, elapsed := range []time.Duration{0, 30 * time.Minute, time.Hour, time.Hour + time.Second, 3 * time.Hour} {
			codec, fake := newTestCodec(t)
			token := issue(t, codec, IssueOptions{TTL: time.Hour, SingleUse: singleUse}, "jobs:read")
			fake.Advance(elapsed)

			wantValid := elapsed <= time.Hour
			if got := codec.Verify(token).Valid; got != wantValid {
				t.Errorf("singleUse=%v elapsed=%v: first valid=%v, want %v", singleUse, elapsed, got, wantValid)
			}
			wantSecond := wantValid && !singleUse
			if got := codec.Verify(token).Valid; got != wantSecond {
				t.Errorf("singleUse=%v elapsed=%v: second valid=%v, want %v", singleUse, elapsed, got, wantSecond)
			}
		}
	}
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	_, err := NewCodec(nil, clock.Fake(epoch))
	if fault.KindOf(err) != fault.Configuration {
		t.Fatalf("err = %v, want configuration fault", err)
	}
}

func TestIssueRequiresActorAndTenant(t *testing.T) {
	codec, _ := newTestCodec(t)
	if _, _, err := codec.Issue("", "tenant-a", nil, IssueOptions{}); fault.KindOf(err) != fault.Validation {
		t.Errorf("empty actor: err = %v, want validation fault", err)
	}
}

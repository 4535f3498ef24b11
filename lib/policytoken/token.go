// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policytoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/scope"
)

// Prefix starts every policy token.
const Prefix = "pt_"

// TokenType is the only accepted value of the payload "type" field.
const TokenType = "policy"

// DefaultTTL is the lifetime of tokens issued without an explicit TTL.
const DefaultTTL = 24 * time.Hour

// ScopeActionExecute is the scope required to run ACTION-category
// jobs.
const ScopeActionExecute = "action:execute"

// Verification failure codes.
const (
	CodeInvalidFormat     = "INVALID_FORMAT"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeExpired           = "EXPIRED"
	CodeAlreadyUsed       = "ALREADY_USED"
	CodeTenantMismatch    = "TENANT_MISMATCH"
	CodeInsufficientScope = "INSUFFICIENT_SCOPE"
	CodeActionNotAllowed  = "ACTION_NOT_ALLOWED"
)

// signatureEncodedLength is the unpadded base64url length of a
// SHA-256 HMAC.
var signatureEncodedLength = base64.RawURLEncoding.EncodedLen(sha256.Size)

// Claims is the token payload. Field names on the wire are fixed.
type Claims struct {
	ID           string   `json:"jti"`
	Subject      string   `json:"sub"`
	TenantID     string   `json:"tenant_id"`
	ProjectID    string   `json:"project_id,omitempty"`
	Scopes       []string `json:"scopes"`
	IssuedAt     int64    `json:"iat"`
	ExpiresAt    int64    `json:"exp"`
	Type         string   `json:"type"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
	SingleUse    bool     `json:"single_use,omitempty"`
}

// Expiry returns ExpiresAt as a time.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// AllowsTool reports whether the token permits tool. A token without
// an allowed_tools list permits every tool.
func (c *Claims) AllowsTool(tool string) bool {
	if len(c.AllowedTools) == 0 {
		return true
	}
	for _, allowed := range c.AllowedTools {
		if allowed == tool {
			return true
		}
	}
	return false
}

// IssueOptions are the optional parts of a token.
type IssueOptions struct {
	ProjectID    string
	TTL          time.Duration
	AllowedTools []string
	SingleUse    bool
}

// Result is the outcome of a verification. Claims is set whenever the
// payload decoded, including for expired and already-used tokens, so
// callers can log who presented them.
type Result struct {
	Valid  bool
	Claims *Claims
	Code   string
	Kind   fault.Kind
	Reason string
}

// Err returns the failure as a classified error, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fault.New(r.Kind, r.Code, "%s", r.Reason)
}

func failure(kind fault.Kind, code string, claims *Claims, format string, args ...any) Result {
	return Result{
		Claims: claims,
		Code:   code,
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Requirement is what a caller needs a token to authorize.
type Requirement struct {
	// TenantID must equal the token's tenant_id.
	TenantID string

	// Scopes must all be satisfied by the token's scopes.
	Scopes []string

	// Action, when non-empty, must appear in the token's
	// allowed_tools (if the token restricts tools).
	Action string
}

// Codec issues and verifies tokens with one shared secret.
type Codec struct {
	secret []byte
	clock  clock.Clock
	replay *ReplaySet
}

// NewCodec creates a codec. The secret slice is used in place, not
// copied, so callers holding it in locked memory keep that property;
// it must stay valid for the codec's lifetime. An empty secret is a
// configuration fault.
func NewCodec(secret []byte, clock clock.Clock) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fault.Configurationf("policytoken: signing secret is empty")
	}
	return &Codec{
		secret: secret,
		clock:  clock,
		replay: NewReplaySet(),
	}, nil
}

// Replay returns the codec's consumed-token set.
func (c *Codec) Replay() *ReplaySet { return c.replay }

// Issue mints a token for actorID acting within tenantID.
func (c *Codec) Issue(actorID, tenantID string, scopes []string, options IssueOptions) (string, *Claims, error) {
	if actorID == "" || tenantID == "" {
		return "", nil, fault.New(fault.Validation, CodeInvalidFormat,
			"policytoken: actor and tenant are required")
	}
	ttl := options.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.clock.Now()
	claims := &Claims{
		ID:           uuid.NewString(),
		Subject:      actorID,
		TenantID:     tenantID,
		ProjectID:    options.ProjectID,
		Scopes:       append([]string{}, scopes...),
		IssuedAt:     now.Unix(),
		ExpiresAt:    now.Add(ttl).Unix(),
		Type:         TokenType,
		AllowedTools: slices.Clone(options.AllowedTools),
		SingleUse:    options.SingleUse,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", nil, fmt.Errorf("policytoken: encoding payload: %w", err)
	}
	payloadSegment := base64.RawURLEncoding.EncodeToString(payload)
	return Prefix + payloadSegment + "_" + c.sign(payloadSegment), claims, nil
}

func (c *Codec) sign(payloadSegment string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payloadSegment))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify runs the full verification sequence and, for single-use
// tokens, consumes the token on success.
func (c *Codec) Verify(token string) Result {
	result := c.decode(token)
	if !result.Valid {
		return result
	}
	return c.redeem(token, result.Claims, true)
}

// Inspect verifies format, signature, payload, and expiry without
// consuming. A single-use token that was already redeemed is reported
// as ALREADY_USED.
func (c *Codec) Inspect(token string) Result {
	result := c.decode(token)
	if !result.Valid {
		return result
	}
	return c.redeem(token, result.Claims, false)
}

// Authorize verifies token and checks it against requirement. When
// consume is true a single-use token is redeemed, but only after every
// other check has passed.
func (c *Codec) Authorize(token string, requirement Requirement, consume bool) Result {
	result := c.decode(token)
	if !result.Valid {
		return result
	}
	claims := result.Claims

	if requirement.TenantID != "" && claims.TenantID != requirement.TenantID {
		return failure(fault.Authorization, CodeTenantMismatch, claims,
			"policy token issued for tenant %q, not %q", claims.TenantID, requirement.TenantID)
	}

	resource, action := scope.Parse(firstOrEmpty(requirement.Scopes))
	if requirement.Action != "" {
		resource = requirement.Action
	}
	if check := scope.Check(requirement.Scopes, claims.Scopes, resource, action); !check.Allowed {
		return failure(fault.Authorization, CodeInsufficientScope, claims, "policy token %s", check.Reason)
	}

	if requirement.Action != "" && !claims.AllowsTool(requirement.Action) {
		return failure(fault.Authorization, CodeActionNotAllowed, claims,
			"policy token does not allow action %q", requirement.Action)
	}

	return c.redeem(token, claims, consume)
}

// decode performs steps 1-4: format, signature, payload, expiry.
func (c *Codec) decode(token string) Result {
	if !strings.HasPrefix(token, Prefix) {
		return failure(fault.Validation, CodeInvalidFormat, nil, "policy token must start with %q", Prefix)
	}
	body := token[len(Prefix):]
	separator := len(body) - signatureEncodedLength - 1
	if separator < 1 || body[separator] != '_' {
		return failure(fault.Validation, CodeInvalidFormat, nil,
			"policy token must have payload and signature segments")
	}
	payloadSegment := body[:separator]
	signatureSegment := body[separator+1:]

	expected := c.sign(payloadSegment)
	if len(signatureSegment) != len(expected) ||
		!hmac.Equal([]byte(signatureSegment), []byte(expected)) {
		return failure(fault.Authentication, CodeInvalidSignature, nil, "policy token signature does not match")
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadSegment)
	if err != nil {
		return failure(fault.Validation, CodeInvalidFormat, nil, "policy token payload is not base64url: %v", err)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return failure(fault.Validation, CodeInvalidFormat, nil, "policy token payload is not valid JSON: %v", err)
	}
	if claims.Type != TokenType {
		return failure(fault.Validation, CodeInvalidFormat, &claims, "policy token type %q is not %q", claims.Type, TokenType)
	}

	if claims.ExpiresAt < c.clock.Now().Unix() {
		return failure(fault.Authentication, CodeExpired, &claims, "policy token expired at %s",
			claims.Expiry().UTC().Format(time.RFC3339))
	}

	return Result{Valid: true, Claims: &claims}
}

// redeem performs step 5. Non-single-use tokens pass through.
func (c *Codec) redeem(token string, claims *Claims, consume bool) Result {
	if !claims.SingleUse {
		return Result{Valid: true, Claims: claims}
	}
	var alreadyUsed bool
	if consume {
		alreadyUsed = !c.replay.Consume(token, claims.Expiry(), c.clock.Now())
	} else {
		alreadyUsed = c.replay.IsConsumed(token)
	}
	if alreadyUsed {
		return failure(fault.Replay, CodeAlreadyUsed, claims, "single-use policy token %s was already used", claims.ID)
	}
	return Result{Valid: true, Claims: claims}
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

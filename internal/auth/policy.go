// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import "strings"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// passwordSymbols is the accepted special-character set.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// Violation identifies a single failed password policy rule.
type Violation string

// Password policy violations, in report order.
const (
	ViolationMissing     Violation = "missing"
	ViolationTooShort    Violation = "too_short"
	ViolationNoUppercase Violation = "no_uppercase"
	ViolationNoLowercase Violation = "no_lowercase"
	ViolationNoDigit     Violation = "no_digit"
	ViolationNoSymbol    Violation = "no_symbol"
)

// Message returns a human-readable description of the violation.
func (v Violation) Message() string {
	switch v {
	case ViolationMissing:
		return "password is required"
	case ViolationTooShort:
		return "password must be at least 8 characters long"
	case ViolationNoUppercase:
		return "password must contain at least one uppercase letter"
	case ViolationNoLowercase:
		return "password must contain at least one lowercase letter"
	case ViolationNoDigit:
		return "password must contain at least one digit"
	case ViolationNoSymbol:
		return "password must contain at least one special character"
	default:
		return string(v)
	}
}

// PolicyResult is the outcome of a password policy check.
type PolicyResult struct {
	Valid      bool
	Violations []Violation
}

// ValidatePassword checks a password against the fixed strength rules.
// All rules are checked independently so every violation is reported at
// once. An empty password reports only ViolationMissing.
func ValidatePassword(password string) PolicyResult {
	if password == "" {
		return PolicyResult{Valid: false, Violations: []Violation{ViolationMissing}}
	}

	var violations []Violation

	if len(password) < MinPasswordLength {
		violations = append(violations, ViolationTooShort)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		violations = append(violations, ViolationNoUppercase)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		violations = append(violations, ViolationNoLowercase)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		violations = append(violations, ViolationNoDigit)
	}
	if !strings.ContainsAny(password, passwordSymbols) {
		violations = append(violations, ViolationNoSymbol)
	}

	return PolicyResult{Valid: len(violations) == 0, Violations: violations}
}

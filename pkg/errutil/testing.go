// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error carrying the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, asOops(t, err).Code())
}

// AssertErrorContext asserts that err is an oops error whose context holds
// value under key.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	errCtx := asOops(t, err).Context()
	require.Contains(t, errCtx, key)
	assert.Equal(t, value, errCtx[key])
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package docs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docvault/docvault/internal/docs"
)

func TestNewPage_Clamping(t *testing.T) {
	tests := []struct {
		name       string
		number     int
		size       int
		wantNumber int
		wantSize   int
	}{
		{"valid values pass through", 2, 50, 2, 50},
		{"zero page becomes first", 0, 20, 1, 20},
		{"negative page becomes first", -3, 20, 1, 20},
		{"zero size becomes default", 1, 0, 1, docs.DefaultPageSize},
		{"oversized clamps to max", 1, 1000, 1, docs.MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := docs.NewPage(tt.number, tt.size)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, tt.wantSize, page.Size)
		})
	}
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, docs.NewPage(1, 20).Offset())
	assert.Equal(t, 20, docs.NewPage(2, 20).Offset())
	assert.Equal(t, 90, docs.NewPage(10, 10).Offset())
}

func TestPage_TotalPages(t *testing.T) {
	page := docs.NewPage(1, 20)

	assert.Equal(t, 1, page.TotalPages(0), "zero items still report one page")
	assert.Equal(t, 1, page.TotalPages(20))
	assert.Equal(t, 2, page.TotalPages(21))
	assert.Equal(t, 5, page.TotalPages(100))
}

func TestPage_HasNext(t *testing.T) {
	assert.True(t, docs.NewPage(1, 20).HasNext(21))
	assert.False(t, docs.NewPage(2, 20).HasNext(21))
	assert.False(t, docs.NewPage(1, 20).HasNext(0))
}

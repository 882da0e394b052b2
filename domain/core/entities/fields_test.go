package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{1200.5, 1200.5},
		{42, 42},
		{"1,200", 1200},
		{" 3500 ", 3500},
		{"₹1,200", 1200},
		{"Rs. 500", 500},
		{"INR 2,000.50", 2000.5},
		{"$99", 99},
		{"", 0},
		{"n/a", 0},
		{nil, 0},
		{true, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceNumber(tt.in), "input %v", tt.in)
	}
}

func TestCoerceString(t *testing.T) {
	assert.Equal(t, "LG", CoerceString("  LG "))
	assert.Equal(t, "", CoerceString(nil))
	assert.Equal(t, "55", CoerceString(55))
	assert.Equal(t, "1.5", CoerceString(1.5))
}

func TestCoerceTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now, CoerceTime(FormatTime(now)))
	assert.Equal(t, now, CoerceTime(now))
	assert.True(t, CoerceTime("yesterday").IsZero())
	assert.True(t, CoerceTime(nil).IsZero())
}

package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountPercent(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		minPrice float64
		whole    float64
		precise  float64
	}{
		{"twenty percent", 1000, 800, 20, 20},
		{"zero price", 0, 800, 0, 0},
		{"negative price", -10, 5, 0, 0},
		{"one third", 3, 2, 33, 33.33},
		{"two thirds", 3, 1, 67, 66.67},
		{"min above price", 100, 150, -50, -50},
		{"no min price", 500, 0, 100, 100},
		{"half rounds up", 200, 199, 1, 0.5},
		{"negative half rounds toward zero", 200, 205, -2, -2.5},
		{"negative hundredth half", 40000, 40002, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.whole, DiscountPercent(tt.price, tt.minPrice))
			assert.Equal(t, tt.precise, DiscountPercentPrecise(tt.price, tt.minPrice))
		})
	}
}

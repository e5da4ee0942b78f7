package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTexture_KnownCompositions(t *testing.T) {
	tests := []struct {
		name             string
		clay, sand, silt float64
		want             TextureClass
	}{
		{"sand", 3, 90, 7, TextureSand},
		{"loamy sand", 5, 82, 13, TextureLoamySand},
		{"sandy loam", 10, 65, 25, TextureSandyLoam},
		{"loam", 18, 40, 42, TextureLoam},
		{"silt loam", 15, 20, 65, TextureSiltLoam},
		{"pure silt maps to silt loam", 5, 8, 87, TextureSiltLoam},
		{"sandy clay loam", 28, 55, 17, TextureSandyClayLoam},
		{"clay loam", 33, 33, 34, TextureClayLoam},
		{"silty clay loam", 33, 10, 57, TextureSiltyClayLoam},
		{"sandy clay", 38, 52, 10, TextureSandyClay},
		{"silty clay", 45, 8, 47, TextureSiltyClay},
		{"clay", 55, 20, 25, TextureClay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTexture(tt.clay, tt.sand, tt.silt))
		})
	}
}

func TestClassifyTexture_NormalizesInput(t *testing.T) {
	// Same ratios at half scale must classify identically.
	assert.Equal(t, ClassifyTexture(55, 20, 25), ClassifyTexture(27.5, 10, 12.5))
}

func TestClassifyTexture_ZeroAndUnmatchedFallBackToLoam(t *testing.T) {
	assert.Equal(t, TextureLoam, ClassifyTexture(0, 0, 0))
	assert.Equal(t, TextureLoam, ClassifyTexture(-10, -5, -1))
}

// The production rule set contains overlapping branches whose order encodes
// precedence (e.g. the silt-loam pair and the sandy-loam family). These
// cases pin the first-match-wins behavior; they are a fidelity requirement,
// not a statement about the canonical USDA triangle.
func TestClassifyTexture_RuleOrderPrecedence(t *testing.T) {
	// silt>=80, clay<12 is already captured by the broader silt>=50,
	// clay<27 branch that precedes it.
	assert.Equal(t, TextureSiltLoam, ClassifyTexture(10, 5, 85))

	// clay>=40 with high sand hits the sandy-clay branch before the
	// plain clay branch.
	assert.Equal(t, TextureSandyClay, ClassifyTexture(42, 48, 10))
}

func TestClassifyTexture_NeverPanicsOnHostileInput(t *testing.T) {
	assert.NotPanics(t, func() {
		ClassifyTexture(1e18, -1e18, 0)
		ClassifyTexture(0.0001, 0.0001, 0.0001)
	})
}

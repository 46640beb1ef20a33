// internal/variants/variants_test.go
package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClockValid(t *testing.T) {
	valid := []string{"-", "600+0", "180+2", "1+0", "5400+60"}
	for _, c := range valid {
		assert.True(t, IsClockValid(c), "clock %q should be valid", c)
	}
	invalid := []string{"", "600", "0+5", "-600+0", "600+-1", "600+", "+5", "600+0+0", "abc+def", "600 + 0"}
	for _, c := range invalid {
		assert.False(t, IsClockValid(c), "clock %q should be invalid", c)
	}
}

func TestVariants(t *testing.T) {
	assert.True(t, IsVariantValid("Classical"))
	assert.True(t, IsVariantValid("Omega"))
	assert.False(t, IsVariantValid("Bughouse"))
	assert.False(t, IsVariantValid(""))

	lb, ok := Leaderboard("Classical")
	assert.True(t, ok)
	assert.Equal(t, "classical", lb)

	_, ok = Leaderboard("Omega")
	assert.False(t, ok, "Omega is casual-only")
}

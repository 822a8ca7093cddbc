package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosestName(t *testing.T) {
	candidates := []string{"Dry Comfort", "Black & White", "Soft"}

	t.Run("finds a near match", func(t *testing.T) {
		name, ok := closestName("Dry Comfrt", candidates)
		assert.True(t, ok)
		assert.Equal(t, "Dry Comfort", name)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		name, ok := closestName("dry comfort", candidates)
		assert.True(t, ok)
		assert.Equal(t, "Dry Comfort", name)
	})

	t.Run("nothing within distance", func(t *testing.T) {
		_, ok := closestName("Completely Different", candidates)
		assert.False(t, ok)
	})

	t.Run("ties resolve deterministically", func(t *testing.T) {
		name, ok := closestName("Sofa", []string{"Sofc", "Sofb"})
		assert.True(t, ok)
		assert.Equal(t, "Sofb", name)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := closestName("anything", nil)
		assert.False(t, ok)
	})
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSimilar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"onion", "onions", true},
		{"onions", "onion", true},
		{"tomatoe", "tomato", true},
		{"egg", "eggs", true},
		{"Rice", "rice", true},
		{"rice", "brown rice", true},
		{"chilli", "chili", true},
		{"rice", "potato", false},
		{"bean", "corn", false},
		{"chicken", "cheese", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.a+"~"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsSimilar(tt.a, tt.b))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, LevenshteinDistance("garlic", "garlic"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 3, LevenshteinDistance("", "egg"))
	assert.Equal(t, 1, LevenshteinDistance("jalapeño", "jalapeno"))

	pairs := [][2]string{{"flour", "floor"}, {"basil", "bay leaf"}, {"", "x"}}
	for _, p := range pairs {
		assert.Equal(t, LevenshteinDistance(p[0], p[1]), LevenshteinDistance(p[1], p[0]), "%s/%s", p[0], p[1])
	}
}

package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		sum, count int
		want       float64
	}{
		{0, 0, 0},
		{5, 1, 5},
		{9, 2, 4.5},
		{13, 3, 4.3},
		{14, 3, 4.7},
		{1, 3, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AverageRating(tt.sum, tt.count), "%d/%d", tt.sum, tt.count)
	}
}

func TestAverageRating_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rates := rapid.SliceOfN(rapid.IntRange(MinRating, MaxRating), 1, 200).Draw(t, "rates")

		sum := 0
		for _, r := range rates {
			sum += r
		}
		got := AverageRating(sum, len(rates))

		if got < MinRating || got > MaxRating {
			t.Fatalf("rating %v out of range for %v", got, rates)
		}
		// Replaying the same history gives the same rating.
		if again := AverageRating(sum, len(rates)); again != got {
			t.Fatalf("replay changed rating: %v != %v", again, got)
		}
	})
}

package domain

import (
	"testing"
)

func mustCombo(t *testing.T, cards []Card) Combo {
	t.Helper()
	combo, ok := DetectCombo(cards)
	if !ok {
		t.Fatalf("expected a valid combo from %v", cards)
	}
	return combo
}

func TestCanBeat(t *testing.T) {
	tests := []struct {
		name     string
		current  []Card
		next     []Card
		expected bool
	}{
		{
			name:     "Higher single beats lower single",
			current:  []Card{{Rank: 0, Suit: 0}},
			next:     []Card{{Rank: 0, Suit: 1}},
			expected: true,
		},
		{
			name:     "Lower single cannot beat higher",
			current:  []Card{{Rank: 5, Suit: 3}},
			next:     []Card{{Rank: 5, Suit: 2}},
			expected: false,
		},
		{
			name:     "Identical single cannot beat itself",
			current:  []Card{{Rank: 5, Suit: 3}},
			next:     []Card{{Rank: 5, Suit: 3}},
			expected: false,
		},
		{
			name:     "Pair cannot answer a single",
			current:  []Card{{Rank: 5, Suit: 0}},
			next:     []Card{{Rank: 6, Suit: 0}, {Rank: 6, Suit: 1}},
			expected: false,
		},
		{
			name:     "Higher pair beats lower pair",
			current:  []Card{{Rank: 5, Suit: 0}, {Rank: 5, Suit: 1}},
			next:     []Card{{Rank: 6, Suit: 0}, {Rank: 6, Suit: 1}},
			expected: true,
		},
		{
			name:     "Same-rank pair decided on suit",
			current:  []Card{{Rank: 5, Suit: 0}, {Rank: 5, Suit: 1}},
			next:     []Card{{Rank: 5, Suit: 2}, {Rank: 5, Suit: 3}},
			expected: true,
		},
		{
			name:     "Longer straight cannot answer shorter",
			current:  []Card{{Rank: 0, Suit: 0}, {Rank: 1, Suit: 0}, {Rank: 2, Suit: 0}},
			next:     []Card{{Rank: 0, Suit: 1}, {Rank: 1, Suit: 1}, {Rank: 2, Suit: 1}, {Rank: 3, Suit: 1}},
			expected: false,
		},
		{
			name:     "Straight beaten by higher top card suit",
			current:  []Card{{Rank: 0, Suit: 0}, {Rank: 1, Suit: 0}, {Rank: 2, Suit: 1}},
			next:     []Card{{Rank: 0, Suit: 1}, {Rank: 1, Suit: 1}, {Rank: 2, Suit: 3}},
			expected: true,
		},
		{
			name:     "Four of a kind chops a black lone 2",
			current:  []Card{{Rank: 12, Suit: 1}},
			next:     []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			expected: true,
		},
		{
			name:     "Four of a kind chops a red lone 2",
			current:  []Card{{Rank: 12, Suit: 3}},
			next:     []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			expected: true,
		},
		{
			name:     "Four of a kind cannot chop a lone non-2",
			current:  []Card{{Rank: 11, Suit: 3}},
			next:     []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			expected: false,
		},
		{
			name:    "Three consecutive pairs cannot chop a lone 2",
			current: []Card{{Rank: 12, Suit: 0}},
			next: []Card{
				{Rank: 0, Suit: 0}, {Rank: 0, Suit: 1},
				{Rank: 1, Suit: 0}, {Rank: 1, Suit: 1},
				{Rank: 2, Suit: 0}, {Rank: 2, Suit: 1},
			},
			expected: false,
		},
		{
			name:    "Four consecutive pairs chop a pair of 2s",
			current: []Card{{Rank: 12, Suit: 0}, {Rank: 12, Suit: 1}},
			next: []Card{
				{Rank: 0, Suit: 0}, {Rank: 0, Suit: 1},
				{Rank: 1, Suit: 0}, {Rank: 1, Suit: 1},
				{Rank: 2, Suit: 0}, {Rank: 2, Suit: 1},
				{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1},
			},
			expected: true,
		},
		{
			name:    "Three consecutive pairs cannot chop a pair of 2s",
			current: []Card{{Rank: 12, Suit: 0}, {Rank: 12, Suit: 1}},
			next: []Card{
				{Rank: 0, Suit: 0}, {Rank: 0, Suit: 1},
				{Rank: 1, Suit: 0}, {Rank: 1, Suit: 1},
				{Rank: 2, Suit: 0}, {Rank: 2, Suit: 1},
			},
			expected: false,
		},
		{
			name:     "Four of a kind cannot chop a pair of 2s",
			current:  []Card{{Rank: 12, Suit: 0}, {Rank: 12, Suit: 1}},
			next:     []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			expected: false,
		},
		{
			name:     "Higher four of a kind beats lower four of a kind",
			current:  []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			next:     []Card{{Rank: 4, Suit: 0}, {Rank: 4, Suit: 1}, {Rank: 4, Suit: 2}, {Rank: 4, Suit: 3}},
			expected: true,
		},
		{
			name:     "Lone 2 cannot answer a four of a kind",
			current:  []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}, {Rank: 3, Suit: 2}, {Rank: 3, Suit: 3}},
			next:     []Card{{Rank: 12, Suit: 3}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := mustCombo(t, tt.current)
			next := mustCombo(t, tt.next)
			if got := CanBeat(&current, next); got != tt.expected {
				t.Errorf("CanBeat() = %t, want %t", got, tt.expected)
			}
		})
	}
}

func TestCanBeat_OpenTrick(t *testing.T) {
	single := mustCombo(t, []Card{{Rank: 0, Suit: 0}})
	if !CanBeat(nil, single) {
		t.Fatal("any valid combo should open an empty trick")
	}
	if CanBeat(nil, Combo{}) {
		t.Fatal("invalid combo should never play")
	}
}

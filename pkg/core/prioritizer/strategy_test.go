package prioritizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
	}{
		{"sainte-lague", SainteLague},
		{"dhondt", DHondt},
		{"wsjf", WSJF},
		{"WSJF", WSJF},
		{" DHondt ", DHondt},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			strategy, err := ParseStrategy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strategy)
		})
	}
}

func TestParseStrategy_Unknown(t *testing.T) {
	for _, input := range []string{"", "borda", "d'hondt"} {
		_, err := ParseStrategy(input)
		assert.ErrorIs(t, err, ErrUnknownStrategy, "input %q should be rejected", input)
	}
}

func TestStrategies_AllValid(t *testing.T) {
	strategies := Strategies()
	assert.Len(t, strategies, 3)
	for _, s := range strategies {
		assert.True(t, s.Valid())
		alloc, err := s.allocator()
		require.NoError(t, err)
		assert.Equal(t, s, alloc.strategy())
	}
}

func TestStrategy_DisplayName(t *testing.T) {
	assert.Equal(t, "Sainte-Laguë", SainteLague.DisplayName())
	assert.Equal(t, "D'Hondt", DHondt.DisplayName())
	assert.Equal(t, "WSJF", WSJF.DisplayName())
	assert.Equal(t, "other", Strategy("other").DisplayName())
}

func TestStrategy_UnknownAllocator(t *testing.T) {
	_, err := Strategy("borda").allocator()
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

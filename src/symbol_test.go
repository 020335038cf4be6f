package magstripe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolForSentinels(t *testing.T) {
	var cases = map[rune]Symbol{
		';': {1, 1, 0, 1, 0},
		'?': {1, 1, 1, 1, 1},
		'=': {1, 0, 1, 1, 0},
		'0': {0, 0, 0, 0, 1},
		'1': {1, 0, 0, 0, 0},
		'9': {1, 0, 0, 1, 1},
	}

	for c, expected := range cases {
		var s, ok = SymbolFor(c)
		require.True(t, ok, "%q", c)
		assert.Equal(t, expected, s, "%q", c)
	}
}

func TestSymbolAlphabet(t *testing.T) {
	for v := range 16 {
		var c = rune('0' + v)

		var s, ok = SymbolFor(c)
		require.True(t, ok)

		assert.Equal(t, v, s.Value())
		assert.Equal(t, c, s.Char())
		assert.True(t, s.OddParity(), "%q is %s", c, s)
	}

	for _, c := range []rune{'/', '@', 'A', ' ', '%'} {
		var _, ok = SymbolFor(c)
		assert.False(t, ok, "%q", c)
	}
}

func TestSymbolReversed(t *testing.T) {
	var s = Symbol{1, 1, 0, 1, 0}

	assert.Equal(t, Symbol{0, 1, 0, 1, 1}, s.Reversed())
	assert.Equal(t, s, s.Reversed().Reversed())
	assert.Equal(t, Symbol{1, 1, 0, 1, 0}, s, "Reversed must not modify the receiver")

	// Parity survives reversal, so a backwards track still frames.
	assert.True(t, s.Reversed().OddParity())
}

func TestSymbolString(t *testing.T) {
	var s, _ = SymbolFor(';')
	assert.Equal(t, "11010", s.String())
}

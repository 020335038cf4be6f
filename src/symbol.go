package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Bits and 5-bit BCD symbols as written on ISO 7811
 *		tracks 2 and 3.
 *
 *		Each symbol is 4 data bits, least significant first,
 *		followed by an odd parity bit.  Adding 48 to the data
 *		value gives the ASCII character, so the alphabet is
 *		'0' through '?'.
 *
 *---------------------------------------------------------------*/

// Bit is a single demodulated bit, 0 or 1.
type Bit uint8

const (
	SymbolDataBits = 4
	SymbolWidth    = SymbolDataBits + 1

	// BCD value 0 is ASCII '0'.
	bcdOffset = 48
)

const (
	StartSentinel  = ';'
	FieldSeparator = '='
	EndSentinel    = '?'
)

// Symbol is one framed character.  It is an array so assignment copies it;
// a checksum accumulator started from a symbol never writes back into it.
type Symbol [SymbolWidth]Bit

// Value is the 4 bit data value, bit 0 least significant.
func (s Symbol) Value() int {
	var v = 0
	for k := SymbolDataBits - 1; k >= 0; k-- {
		v = v<<1 | int(s[k]&1)
	}

	return v
}

// Char maps the data bits to the track character.  The parity bit is ignored.
func (s Symbol) Char() rune {
	return rune(s.Value() + bcdOffset)
}

func (s Symbol) ones() int {
	var n = 0
	for _, b := range s {
		n += int(b & 1)
	}

	return n
}

// OddParity reports whether the 5 bits sum to an odd number.
func (s Symbol) OddParity() bool {
	return s.ones()%2 == 1
}

// Reversed returns the symbol with its bit order reversed, as seen when the
// card is swiped backwards.
func (s Symbol) Reversed() Symbol {
	var r Symbol
	for k := range SymbolWidth {
		r[k] = s[SymbolWidth-1-k]
	}

	return r
}

func (s Symbol) String() string {
	var b [SymbolWidth]byte
	for k, bit := range s {
		b[k] = '0' + byte(bit&1)
	}

	return string(b[:])
}

// SymbolFor builds the symbol for a track character, with odd parity.
// ok is false for anything outside '0'..'?'.
func SymbolFor(c rune) (Symbol, bool) {
	var v = int(c) - bcdOffset
	if v < 0 || v > 0x0f {
		return Symbol{}, false
	}

	var s Symbol
	for k := range SymbolDataBits {
		s[k] = Bit((v >> k) & 1)
	}

	if !s.OddParity() {
		s[SymbolDataBits] = 1
	}

	return s, true
}

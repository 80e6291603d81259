package colorhex_test

import (
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/colorhex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Run("ValidColors", func(t *testing.T) {
		cases := []struct {
			payload string
			want    [3]byte
		}{
			{"#ff0000", [3]byte{0xff, 0x00, 0x00}},
			{"#00FF00 shouting works too", [3]byte{0x00, 0xff, 0x00}},
			{"leading text #0000ff", [3]byte{0x00, 0x00, 0xff}},
			{"#123abc#def456 first wins", [3]byte{0x12, 0x3a, 0xbc}},
			{"#ffffffff extra hex ignored", [3]byte{0xff, 0xff, 0xff}},
		}

		for _, c := range cases {
			color, err := colorhex.Extract([]byte(c.payload))
			require.NoError(t, err, "payload %q", c.payload)
			assert.Equal(t, c.want, color, "payload %q", c.payload)
		}
	})

	t.Run("NoHash", func(t *testing.T) {
		_, err := colorhex.Extract([]byte("just some text"))
		assert.ErrorIs(t, err, colorhex.ErrNoColor)
	})

	t.Run("TooShortAfterHash", func(t *testing.T) {
		_, err := colorhex.Extract([]byte("#fff"))
		assert.ErrorIs(t, err, colorhex.ErrBadHex)
	})

	t.Run("NonHexDigits", func(t *testing.T) {
		_, err := colorhex.Extract([]byte("#zzzzzz"))
		assert.ErrorIs(t, err, colorhex.ErrBadHex)
	})

	t.Run("FirstHashDecides", func(t *testing.T) {
		// An early malformed '#' is not skipped in favour of a later
		// well-formed one.
		_, err := colorhex.Extract([]byte("#bad #00ff00"))
		assert.ErrorIs(t, err, colorhex.ErrBadHex)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := colorhex.Extract(nil)
		assert.ErrorIs(t, err, colorhex.ErrNoColor)
	})
}

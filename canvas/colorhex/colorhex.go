// Package colorhex extracts a #RRGGBB color from a verified payload.
//
// The accepted grammar is deliberately narrow: the first '#' in the payload
// followed by exactly six hex digits, nothing else. A payload containing an
// earlier '#' that is not followed by six hex digits is rejected rather than
// scanned further; widening this would change which byte ranges an attacker
// can turn into a color, so keep the grammar as it is.
package colorhex

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrNoColor = errors.New("no #RRGGBB color found in payload")
	ErrBadHex  = errors.New("color is not 6 hex characters")
)

// Extract returns the 3-byte RGB value of the first #RRGGBB substring.
func Extract(payload []byte) ([3]byte, error) {
	var color [3]byte

	i := bytes.IndexByte(payload, '#')
	if i < 0 {
		return color, ErrNoColor
	}

	if len(payload) < i+7 {
		return color, fmt.Errorf("%w: %d bytes after '#'", ErrBadHex, len(payload)-i-1)
	}

	decoded, err := hex.DecodeString(string(payload[i+1 : i+7]))
	if err != nil {
		return color, fmt.Errorf("%w: %q", ErrBadHex, payload[i+1:i+7])
	}

	copy(color[:], decoded)
	return color, nil
}

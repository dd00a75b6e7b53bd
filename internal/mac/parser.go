// Package mac parses and validates hardware addresses.
package mac

import (
	"errors"
	"fmt"

	"github.com/fgeck/gowake/internal/models"
)

// Parse errors.
var (
	ErrInvalidFormat = errors.New("invalid MAC address format")
	ErrInvalidLength = errors.New("invalid MAC address length")
)

// textLen is the length of six two-digit groups joined by five separators.
const textLen = models.MACAddressLen*3 - 1

// Input is one of the accepted MAC address encodings: Bytes or Text.
type Input interface {
	isInput()
}

// Bytes is a raw hardware address. It must be exactly six bytes long.
type Bytes []byte

// Text is a textual hardware address such as 01:23:45:67:89:AB. Groups may be
// separated by ':', '.' or '-', but only one separator may be used.
type Text string

func (Bytes) isInput() {}
func (Text) isInput()  {}

// Parse converts in to a MACAddress.
func Parse(in Input) (models.MACAddress, error) {
	switch v := in.(type) {
	case Bytes:
		return parseBytes(v)
	case Text:
		return parseText(string(v))
	default:
		return models.MACAddress{}, fmt.Errorf("%w: unsupported input %T", ErrInvalidFormat, in)
	}
}

// ParseString parses a textual MAC address.
func ParseString(s string) (models.MACAddress, error) {
	return Parse(Text(s))
}

// FromBytes validates a raw MAC address.
func FromBytes(b []byte) (models.MACAddress, error) {
	return Parse(Bytes(b))
}

func parseBytes(b []byte) (models.MACAddress, error) {
	var addr models.MACAddress
	if len(b) != models.MACAddressLen {
		return addr, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLength, models.MACAddressLen, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

func parseText(s string) (models.MACAddress, error) {
	var addr models.MACAddress
	if len(s) != textLen {
		return addr, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	sep := s[2]
	if sep != ':' && sep != '.' && sep != '-' {
		return addr, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	for i := range addr {
		pos := i * 3
		if i > 0 && s[pos-1] != sep {
			return addr, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		hi, ok1 := hexVal(s[pos])
		lo, ok2 := hexVal(s[pos+1])
		if !ok1 || !ok2 {
			return addr, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		addr[i] = hi<<4 | lo
	}

	return addr, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

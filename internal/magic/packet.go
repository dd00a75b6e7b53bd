// Package magic builds and decodes Wake-on-LAN magic packets.
package magic

import (
	"errors"
	"fmt"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/models"
	"github.com/mdlayher/wol"
)

// ErrNotMagicPacket is returned by Decode for payloads that are not magic packets.
var ErrNotMagicPacket = errors.New("not a magic packet")

// Build returns the magic packet waking addr: six 0xFF bytes followed by
// sixteen copies of addr.
func Build(addr models.MACAddress) models.MagicPacket {
	var p models.MagicPacket
	for i := 0; i < models.MagicSyncLen; i++ {
		p[i] = 0xFF
	}
	for i := 0; i < models.MagicRepetitions; i++ {
		copy(p[models.MagicSyncLen+i*models.MACAddressLen:], addr[:])
	}
	return p
}

// Decode extracts the target address from a received payload. A trailing
// SecureOn password is accepted and ignored.
func Decode(b []byte) (models.MACAddress, error) {
	var p wol.MagicPacket
	if err := p.UnmarshalBinary(b); err != nil {
		return models.MACAddress{}, fmt.Errorf("%w: %w", ErrNotMagicPacket, err)
	}

	addr, err := mac.FromBytes(p.Target)
	if err != nil {
		return models.MACAddress{}, fmt.Errorf("%w: %w", ErrNotMagicPacket, err)
	}
	return addr, nil
}

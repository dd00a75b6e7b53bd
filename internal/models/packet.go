package models

// Magic packet layout.
const (
	MagicSyncLen     = 6
	MagicRepetitions = 16
	MagicPacketLen   = MagicSyncLen + MagicRepetitions*MACAddressLen // 102
)

// MagicPacket is a Wake-on-LAN payload: six 0xFF bytes followed by the
// target MAC address repeated sixteen times.
type MagicPacket [MagicPacketLen]byte

// Bytes returns a copy of the payload.
func (p MagicPacket) Bytes() []byte {
	b := make([]byte, MagicPacketLen)
	copy(b, p[:])
	return b
}

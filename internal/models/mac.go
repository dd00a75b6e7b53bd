package models

import (
	"fmt"
	"net"
)

// MACAddressLen is the length of an EUI-48 hardware address in bytes.
const MACAddressLen = 6

// MACAddress is an EUI-48 hardware address. It is a value type, so two
// addresses compare equal with == when all six bytes match.
type MACAddress [MACAddressLen]byte

// String returns the canonical lower-case, colon-separated form
// (e.g. 01:23:45:67:89:ab).
func (m MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Upper returns the upper-case, colon-separated form (e.g. 01:23:45:67:89:AB).
func (m MACAddress) Upper() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// HardwareAddr returns a copy of the address as a net.HardwareAddr.
func (m MACAddress) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, MACAddressLen)
	copy(hw, m[:])
	return hw
}

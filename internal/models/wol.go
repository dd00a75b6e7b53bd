package models

import "time"

// Transports used to deliver a magic packet.
const (
	TransportUDP      = "udp"
	TransportEthernet = "ethernet"
)

// WakeConfig holds Wake-on-LAN transmission settings.
type WakeConfig struct {
	BroadcastAddr string // destination IP:PORT
	BindAddr      string // local IP:PORT
	Interface     string // if set, send a raw Ethernet frame on this interface instead of UDP
}

// DefaultWakeConfig returns the settings used when nothing is configured.
func DefaultWakeConfig() WakeConfig {
	return WakeConfig{
		BroadcastAddr: DefaultBroadcastAddr,
		BindAddr:      DefaultBindAddr,
	}
}

// WakeRequest describes a single wake operation.
type WakeRequest struct {
	Target    string // registry name, or a literal MAC if NameAsMAC is set
	NameAsMAC bool
	Config    WakeConfig
}

// WakeResult holds the result of a Wake-on-LAN operation.
type WakeResult struct {
	Name        string // empty when woken by literal MAC
	MAC         MACAddress
	Transport   string
	Destination string
	BytesSent   int
	Duration    time.Duration
}

// ReceivedPacket is a magic packet observed by the listener.
type ReceivedPacket struct {
	Source     string
	Target     MACAddress
	Names      []string // registry entries with this MAC
	ReceivedAt time.Time
}

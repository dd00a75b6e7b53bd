package models

// Defaults for waking machines.
const (
	DefaultBroadcastAddr = "255.255.255.255:9"
	DefaultBindAddr      = "0.0.0.0:0"
	DefaultServerAddr    = ":8080"
)

// DefaultListenAddrs are the UDP ports Wake-on-LAN packets are usually sent to.
var DefaultListenAddrs = []string{":7", ":9"}

// Settings holds the complete gowake configuration.
type Settings struct {
	RegistryPath string
	Wake         WakeConfig
	Server       ServerConfig
	Listen       ListenConfig
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	ListenAddr string
}

// ListenConfig holds magic packet listener settings.
type ListenConfig struct {
	Addrs []string
}

//go:build !unix && !windows

package wol

// The runtime already marks datagram sockets broadcast-capable here.
func setBroadcast(uintptr) error {
	return nil
}

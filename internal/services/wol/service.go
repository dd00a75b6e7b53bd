// Package wol provides Wake-on-LAN operations.
package wol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fgeck/gowake/internal/magic"
	"github.com/fgeck/gowake/internal/models"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
)

// ErrTransmission matches every TransmissionError.
var ErrTransmission = errors.New("transmission failed")

// TransmissionError reports a socket failure while sending a magic packet.
type TransmissionError struct {
	Op   string // "resolve", "bind", "broadcast", "send" or "interface"
	Addr string
	Err  error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransmissionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransmission.
func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmission
}

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Wake(ctx context.Context, mac models.MACAddress, cfg models.WakeConfig) (*models.WakeResult, error)
}

// Sender transmits a magic packet over UDP.
type Sender interface {
	Send(ctx context.Context, packet models.MagicPacket, broadcastAddr, bindAddr string) (int, error)
}

// RawSender transmits a magic packet as an Ethernet frame on an interface.
type RawSender interface {
	Send(iface string, mac models.MACAddress) error
}

// UDPSender sends magic packets as UDP datagrams.
type UDPSender struct{}

// Send binds a socket to bindAddr, enables broadcast on it and sends packet
// to broadcastAddr as a single datagram. The socket is always closed.
func (UDPSender) Send(ctx context.Context, packet models.MagicPacket, broadcastAddr, bindAddr string) (int, error) {
	dst, err := net.ResolveUDPAddr("udp", broadcastAddr)
	if err != nil {
		return 0, &TransmissionError{Op: "resolve", Addr: broadcastAddr, Err: err}
	}

	network := "udp4"
	if dst.IP != nil && dst.IP.To4() == nil {
		network = "udp6"
	}

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, network, bindAddr)
	if err != nil {
		return 0, &TransmissionError{Op: "bind", Addr: bindAddr, Err: err}
	}
	defer func() { _ = pc.Close() }()

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		return 0, &TransmissionError{Op: "bind", Addr: bindAddr, Err: fmt.Errorf("unexpected connection type %T", pc)}
	}
	if err := enableBroadcast(conn); err != nil {
		return 0, &TransmissionError{Op: "broadcast", Addr: bindAddr, Err: err}
	}

	payload := packet.Bytes()
	n, err := conn.WriteTo(payload, dst)
	if err != nil {
		return n, &TransmissionError{Op: "send", Addr: broadcastAddr, Err: err}
	}
	if n != len(payload) {
		return n, &TransmissionError{Op: "send", Addr: broadcastAddr, Err: fmt.Errorf("short write: %d of %d bytes", n, len(payload))}
	}

	return n, nil
}

func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = setBroadcast(fd)
	}); err != nil {
		return err
	}
	return sockErr
}

// EthernetSender sends magic packets as EtherType 0x0842 frames using
// mdlayher/wol. It needs CAP_NET_RAW.
type EthernetSender struct{}

// Send wakes mac with a raw frame on the named interface.
func (EthernetSender) Send(iface string, mac models.MACAddress) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return &TransmissionError{Op: "interface", Addr: iface, Err: err}
	}

	client, err := wol.NewRawClient(ifi)
	if err != nil {
		return &TransmissionError{Op: "bind", Addr: iface, Err: err}
	}
	defer func() { _ = client.Close() }()

	if err := client.Wake(mac.HardwareAddr()); err != nil {
		return &TransmissionError{Op: "send", Addr: iface, Err: err}
	}
	return nil
}

// Impl implements the WOL Service interface.
type Impl struct {
	sender    Sender
	rawSender RawSender
	logger    zerolog.Logger
}

// New creates a new WOL service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		sender:    UDPSender{},
		rawSender: EthernetSender{},
		logger:    logger,
	}
}

// NewWithSenders creates a new WOL service with custom senders (for testing).
func NewWithSenders(logger zerolog.Logger, sender Sender, rawSender RawSender) *Impl {
	return &Impl{
		sender:    sender,
		rawSender: rawSender,
		logger:    logger,
	}
}

// Wake builds the magic packet for mac and sends it once. There is no retry
// and no check that the target came up.
func (s *Impl) Wake(ctx context.Context, mac models.MACAddress, cfg models.WakeConfig) (*models.WakeResult, error) {
	start := time.Now()
	cfg = withDefaults(cfg)
	packet := magic.Build(mac)

	result := &models.WakeResult{MAC: mac}

	if cfg.Interface != "" {
		result.Transport = models.TransportEthernet
		result.Destination = cfg.Interface

		s.logger.Info().
			Str("mac", mac.String()).
			Str("interface", cfg.Interface).
			Msg("sending magic packet frame")

		if err := s.rawSender.Send(cfg.Interface, mac); err != nil {
			return nil, err
		}
		result.BytesSent = models.MagicPacketLen
	} else {
		result.Transport = models.TransportUDP
		result.Destination = cfg.BroadcastAddr

		s.logger.Info().
			Str("mac", mac.String()).
			Str("broadcast", cfg.BroadcastAddr).
			Str("bind", cfg.BindAddr).
			Msg("sending magic packet")

		n, err := s.sender.Send(ctx, packet, cfg.BroadcastAddr, cfg.BindAddr)
		if err != nil {
			return nil, err
		}
		result.BytesSent = n
	}

	result.Duration = time.Since(start)
	s.logger.Debug().
		Int("bytes", result.BytesSent).
		Dur("duration", result.Duration).
		Msg("magic packet sent")

	return result, nil
}

func withDefaults(cfg models.WakeConfig) models.WakeConfig {
	if cfg.BroadcastAddr == "" {
		cfg.BroadcastAddr = models.DefaultBroadcastAddr
	}
	if cfg.BindAddr == "" {
		cfg.BindAddr = models.DefaultBindAddr
	}
	return cfg
}

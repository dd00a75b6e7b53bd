// Package listener receives Wake-on-LAN packets, for checking that magic
// packets reach a network segment.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fgeck/gowake/internal/magic"
	"github.com/fgeck/gowake/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	readBufferSize = 4096
	pollInterval   = 750 * time.Millisecond
)

// Handler is called for every magic packet received.
type Handler func(pkt models.ReceivedPacket)

// Service defines the interface for the magic packet listener.
type Service interface {
	Listen(ctx context.Context, addrs []string, handle Handler) error
}

// Resolver maps an address to the registry names it is known by.
type Resolver interface {
	NamesFor(mac models.MACAddress) []string
}

// Impl implements the listener Service interface.
type Impl struct {
	resolver Resolver
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a new listener. resolver may be nil.
func New(logger zerolog.Logger, resolver Resolver) *Impl {
	return &Impl{
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Listen opens a UDP socket on every address and serves them until ctx is
// cancelled or one of them fails.
func (s *Impl) Listen(ctx context.Context, addrs []string, handle Handler) error {
	if len(addrs) == 0 {
		return errors.New("no listen addresses given")
	}

	var lc net.ListenConfig
	conns := make([]net.PacketConn, 0, len(addrs))
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for _, addr := range addrs {
		pc, err := lc.ListenPacket(ctx, "udp4", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		conns = append(conns, pc)
		s.logger.Info().Str("addr", pc.LocalAddr().String()).Msg("listening for magic packets")
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, pc := range conns {
		eg.Go(func() error {
			return s.Serve(ctx, pc, handle)
		})
	}
	return eg.Wait()
}

// Serve reads datagrams from conn until ctx is cancelled. Datagrams that are
// not magic packets are skipped.
func (s *Impl) Serve(ctx context.Context, conn net.PacketConn, handle Handler) error {
	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		_ = conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading from %s: %w", conn.LocalAddr(), err)
		}

		target, err := magic.Decode(buf[:n])
		if err != nil {
			s.logger.Debug().
				Str("source", src.String()).
				Int("bytes", n).
				Err(err).
				Msg("ignoring datagram")
			continue
		}

		pkt := models.ReceivedPacket{
			Source:     src.String(),
			Target:     target,
			ReceivedAt: s.now(),
		}
		if s.resolver != nil {
			pkt.Names = s.resolver.NamesFor(target)
		}

		s.logger.Info().
			Str("source", pkt.Source).
			Str("mac", target.String()).
			Strs("names", pkt.Names).
			Msg("magic packet received")

		if handle != nil {
			handle(pkt)
		}
	}
}

// Package runner resolves wake targets and dispatches magic packets.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/rs/zerolog"
)

// ErrNoTarget is returned when a wake request names nothing to wake.
var ErrNoTarget = errors.New("no machine name or MAC address given")

// Service defines the interface for the wake runner.
type Service interface {
	Run(ctx context.Context, req models.WakeRequest) (*models.WakeResult, error)
}

// Lookuper resolves machine names to addresses.
type Lookuper interface {
	Lookup(name string) (models.MACAddress, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	registry Lookuper
	wolSvc   wol.Service
	logger   zerolog.Logger
}

// New creates a new runner service.
func New(logger zerolog.Logger, registry Lookuper) *Impl {
	return &Impl{
		registry: registry,
		wolSvc:   wol.New(logger),
		logger:   logger,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(logger zerolog.Logger, registry Lookuper, wolSvc wol.Service) *Impl {
	return &Impl{
		registry: registry,
		wolSvc:   wolSvc,
		logger:   logger,
	}
}

// Run resolves req.Target to an address, either literally or through the
// registry, and sends one magic packet to it.
func (s *Impl) Run(ctx context.Context, req models.WakeRequest) (*models.WakeResult, error) {
	if req.Target == "" {
		return nil, ErrNoTarget
	}

	var (
		name string
		addr models.MACAddress
		err  error
	)
	if req.NameAsMAC {
		addr, err = mac.ParseString(req.Target)
		if err != nil {
			return nil, err
		}
	} else {
		if s.registry == nil {
			return nil, fmt.Errorf("no registry to look up %q", req.Target)
		}
		name = req.Target
		addr, err = s.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("name", name).
		Str("mac", addr.String()).
		Msg("waking machine")

	result, err := s.wolSvc.Wake(ctx, addr, req.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to wake %s: %w", describe(name, addr), err)
	}
	result.Name = name

	s.logger.Info().
		Str("name", name).
		Str("mac", addr.String()).
		Str("transport", result.Transport).
		Str("destination", result.Destination).
		Msg("magic packet sent")

	return result, nil
}

func describe(name string, addr models.MACAddress) string {
	if name == "" {
		return addr.String()
	}
	return fmt.Sprintf("%s (%s)", name, addr)
}

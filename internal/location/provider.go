package location

import (
	"context"
	"errors"

	"github.com/smartdevs17/sail-logbook/internal/config"
	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

var (
	// ErrPermissionDenied is returned when the user has not granted location access
	ErrPermissionDenied = errors.New("no location permission granted")
	// ErrServiceDisabled is returned when location services are turned off
	ErrServiceDisabled = errors.New("location services are disabled on the device")
)

// Provider resolves the current position of the device
type Provider interface {
	CurrentLocation(ctx context.Context) (models.Coordinate, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context) (models.Coordinate, error)

// CurrentLocation calls f
func (f ProviderFunc) CurrentLocation(ctx context.Context) (models.Coordinate, error) {
	return f(ctx)
}

// StaticProvider reports a fixed position, gated by permission and service
// switches the same way a device provider is.
type StaticProvider struct {
	Position          models.Coordinate
	PermissionGranted bool
	ServicesEnabled   bool
}

// NewStaticProvider builds a provider from the location section of the config
func NewStaticProvider(cfg *config.LocationConfig) *StaticProvider {
	return &StaticProvider{
		Position: models.Coordinate{
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
		},
		PermissionGranted: cfg.PermissionGranted,
		ServicesEnabled:   cfg.ServicesEnabled,
	}
}

// CurrentLocation returns the configured position.
// Permission is checked before the service state.
func (p *StaticProvider) CurrentLocation(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	if !p.PermissionGranted {
		return models.Coordinate{}, Unavailable(ErrPermissionDenied)
	}
	if !p.ServicesEnabled {
		return models.Coordinate{}, Unavailable(ErrServiceDisabled)
	}
	return p.Position, nil
}

// Unavailable wraps a provider failure as a LOCATION_UNAVAILABLE error
func Unavailable(cause error) error {
	return utils.WrapAppError(utils.ErrCodeLocationUnavailable, "Location unavailable", cause)
}

// NewProvider creates the provider selected in configuration
func NewProvider(cfg *config.LocationConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "static":
		return NewStaticProvider(cfg), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Unsupported location provider", cfg.Provider)
	}
}

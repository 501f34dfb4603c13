package db

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config represents the complete runtime configuration loaded from the database.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
	HEOS      *HEOSSettings
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return "0.0.0.0:8080"
	}
	return c.APIServer.Address()
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// ActiveConfig loads the complete configuration for the active profile.
// Missing HEOS settings fall back to the defaults.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{
		Profile: profile,
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	heos, err := db.HEOSSettings().Get(ctx, profile.ID)
	switch {
	case errors.Is(err, ErrHEOSSettingsNotFound):
		heos = DefaultHEOSSettings(profile.ID)
	case err != nil:
		return nil, fmt.Errorf("failed to get heos settings: %w", err)
	}
	config.HEOS = heos

	return config, nil
}

// UseProfile makes the named profile active.
func (db *DB) UseProfile(ctx context.Context, name string) error {
	p, err := db.Profiles().GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	if p.IsActive {
		return nil
	}
	return db.Profiles().SetActive(ctx, p.ID)
}

// Load opens the database at path, migrates and bootstraps it, and returns it
// with the configuration of the named profile, or of the active one if
// profile is empty.
func Load(ctx context.Context, path, profile string) (*DB, *Config, error) {
	database, err := Open(path)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := database.Bootstrap(ctx); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("failed to bootstrap database: %w", err)
	}

	if profile != "" {
		if err := database.UseProfile(ctx, profile); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}

	return database, cfg, nil
}

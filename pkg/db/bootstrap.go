package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Bootstrap creates the default profile with its API server and HEOS settings
// on first run. It also backfills HEOS settings for a profile created before
// they existed. Call it after Migrate.
func (db *DB) Bootstrap(ctx context.Context) error {
	needs, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}

	if !needs {
		return db.ensureHEOSSettings(ctx)
	}

	profile := &Profile{
		Name:     "default",
		Timezone: detectTimezone(),
		IsActive: true,
	}
	if err := db.Profiles().Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create default profile: %w", err)
	}

	if err := db.APIServers().Create(ctx, &APIServer{
		ProfileID: profile.ID,
		Host:      "0.0.0.0",
		Port:      8080,
	}); err != nil {
		return fmt.Errorf("failed to create default API server: %w", err)
	}

	if err := db.HEOSSettings().Create(ctx, DefaultHEOSSettings(profile.ID)); err != nil {
		return fmt.Errorf("failed to create default heos settings: %w", err)
	}

	return nil
}

func (db *DB) ensureHEOSSettings(ctx context.Context) error {
	profiles, err := db.Profiles().List(ctx)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		_, err := db.HEOSSettings().Get(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrHEOSSettingsNotFound) {
			return err
		}
		if err := db.HEOSSettings().Create(ctx, DefaultHEOSSettings(p.ID)); err != nil {
			return err
		}
	}
	return nil
}

// detectTimezone attempts to detect the system timezone.
func detectTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}

	if runtime.GOOS == "linux" {
		// systemd
		out, err := exec.Command("timedatectl", "show", "--property=Timezone", "--value").Output()
		if err == nil && len(strings.TrimSpace(string(out))) > 0 {
			return strings.TrimSpace(string(out))
		}

		if data, err := os.ReadFile("/etc/timezone"); err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	// Both Linux and macOS link /etc/localtime into the zoneinfo tree.
	if link, err := os.Readlink("/etc/localtime"); err == nil {
		if _, zone, ok := strings.Cut(link, "zoneinfo/"); ok {
			return zone
		}
	}

	return "UTC"
}

// NeedsBootstrap returns true if the database needs initial setup.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

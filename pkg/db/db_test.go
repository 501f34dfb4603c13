package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return database
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	version, err := database.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, currentSchemaVersion)
	}
}

func TestBootstrapCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	needs, err := database.NeedsBootstrap(ctx)
	if err != nil || !needs {
		t.Fatalf("NeedsBootstrap() = %v, %v; want true, nil", needs, err)
	}

	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	// A second run must not duplicate rows.
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}

	profiles, err := database.Profiles().List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "default" || !profiles[0].IsActive {
		t.Fatalf("profiles = %+v, want one active default profile", profiles)
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig() error = %v", err)
	}
	if got := cfg.APIAddress(); got != "0.0.0.0:8080" {
		t.Errorf("APIAddress() = %q, want 0.0.0.0:8080", got)
	}
	if cfg.HEOS == nil {
		t.Fatal("HEOS settings missing")
	}
	if cfg.HEOS.ControlPort != 1255 {
		t.Errorf("ControlPort = %d, want 1255", cfg.HEOS.ControlPort)
	}
	if cfg.HEOS.SyncInterval() != time.Minute {
		t.Errorf("SyncInterval() = %v, want 1m", cfg.HEOS.SyncInterval())
	}
	if cfg.HEOS.MQTTTopicPrefix != "heosdial" {
		t.Errorf("MQTTTopicPrefix = %q, want heosdial", cfg.HEOS.MQTTTopicPrefix)
	}
}

func TestActiveConfigWithoutProfile(t *testing.T) {
	database := openTestDB(t)

	_, err := database.ActiveConfig(context.Background())
	if !errors.Is(err, ErrNoActiveProfile) {
		t.Fatalf("ActiveConfig() error = %v, want ErrNoActiveProfile", err)
	}
}

func TestActiveConfigDefaultsMissingHEOSSettings(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	p := &Profile{Name: "bare", Timezone: "UTC", IsActive: true}
	if err := database.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig() error = %v", err)
	}
	if cfg.APIServer != nil {
		t.Errorf("APIServer = %+v, want nil", cfg.APIServer)
	}
	if cfg.APIAddress() != "0.0.0.0:8080" {
		t.Errorf("APIAddress() = %q", cfg.APIAddress())
	}
	if cfg.HEOS.ProfileID != p.ID || cfg.HEOS.VolumeStep != 2 {
		t.Errorf("HEOS = %+v, want defaults for profile %d", cfg.HEOS, p.ID)
	}

	// Bootstrap backfills the row for existing profiles.
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, err := database.HEOSSettings().Get(ctx, p.ID); err != nil {
		t.Errorf("Get() after backfill error = %v", err)
	}
}

func TestSetActiveProfile(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	studio := &Profile{Name: "studio", Timezone: "Europe/Berlin"}
	if err := database.Profiles().Create(ctx, studio); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := database.Profiles().SetActive(ctx, studio.ID); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	active, err := database.Profiles().GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if active.Name != "studio" {
		t.Errorf("active profile = %q, want studio", active.Name)
	}

	byName, err := database.Profiles().GetByName(ctx, "default")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName.IsActive {
		t.Error("default profile still active")
	}

	if err := database.Profiles().SetActive(ctx, 9999); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("SetActive(missing) error = %v, want ErrProfileNotFound", err)
	}
	if _, err := database.Profiles().Get(ctx, 9999); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrProfileNotFound", err)
	}
}

func TestHEOSSettingsUpdate(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	profile, err := database.Profiles().GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}

	settings, err := database.HEOSSettings().Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	settings.StaticHost = "192.168.1.20"
	settings.DialDevice = "/dev/ttyACM0"
	settings.DialPlayerID = "-1465850739"
	settings.MQTTBrokerURL = "mqtt://localhost:1883"
	settings.MQTTListen = "127.0.0.1:1883"
	if err := database.HEOSSettings().Update(ctx, settings); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := database.HEOSSettings().Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.StaticHost != "192.168.1.20" || got.DialDevice != "/dev/ttyACM0" ||
		got.DialPlayerID != "-1465850739" || got.MQTTBrokerURL != "mqtt://localhost:1883" ||
		got.MQTTListen != "127.0.0.1:1883" {
		t.Errorf("Get() = %+v, want updated values", got)
	}

	missing := DefaultHEOSSettings(9999)
	if err := database.HEOSSettings().Update(ctx, missing); !errors.Is(err, ErrHEOSSettingsNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrHEOSSettingsNotFound", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heosdial.db")
	database, cfg, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	if database.Path() != path {
		t.Errorf("Path() = %q, want %q", database.Path(), path)
	}
	if cfg.Profile == nil || cfg.HEOS == nil {
		t.Fatalf("Load() config = %+v, want profile and heos settings", cfg)
	}
}

func TestUseProfile(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if err := database.UseProfile(ctx, "missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("UseProfile(missing) error = %v, want ErrProfileNotFound", err)
	}
	if err := database.Profiles().Create(ctx, &Profile{Name: "garden", Timezone: "UTC"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := database.UseProfile(ctx, "garden"); err != nil {
		t.Fatalf("UseProfile() error = %v", err)
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig() error = %v", err)
	}
	if cfg.Profile.Name != "garden" {
		t.Errorf("active profile = %q, want garden", cfg.Profile.Name)
	}
}

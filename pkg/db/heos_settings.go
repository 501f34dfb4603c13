package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrHEOSSettingsNotFound = errors.New("heos settings not found")

// HEOSSettings holds how a profile reaches the speakers and what it exposes.
type HEOSSettings struct {
	ID        int64
	ProfileID int64

	// ControlPort is the speakers' command port.
	ControlPort int
	// StaticHost skips SSDP discovery when set.
	StaticHost string
	// SyncIntervalSeconds is how often the topology is re-read. Zero disables it.
	SyncIntervalSeconds int
	// VolumeStep is the change applied per dial detent.
	VolumeStep int

	DialDevice   string
	DialBaud     int
	DialPlayerID string

	// MQTTBrokerURL enables the MQTT bridge when set.
	MQTTBrokerURL   string
	MQTTTopicPrefix string
	// MQTTListen runs an embedded broker on this address when set.
	MQTTListen string

	UpdatedAt time.Time
}

// SyncInterval returns the topology sync interval.
func (h *HEOSSettings) SyncInterval() time.Duration {
	return time.Duration(h.SyncIntervalSeconds) * time.Second
}

// DefaultHEOSSettings returns the settings a new profile starts with.
func DefaultHEOSSettings(profileID int64) *HEOSSettings {
	return &HEOSSettings{
		ProfileID:           profileID,
		ControlPort:         1255,
		SyncIntervalSeconds: 60,
		VolumeStep:          2,
		DialBaud:            115200,
		MQTTTopicPrefix:     "heosdial",
	}
}

// HEOSSettingsStore provides HEOS settings operations.
type HEOSSettingsStore interface {
	Get(ctx context.Context, profileID int64) (*HEOSSettings, error)
	Create(ctx context.Context, h *HEOSSettings) error
	Update(ctx context.Context, h *HEOSSettings) error
}

// HEOSSettings returns a HEOSSettingsStore for this database.
func (db *DB) HEOSSettings() HEOSSettingsStore {
	return &heosSettingsStore{db: db}
}

type heosSettingsStore struct {
	db *DB
}

func (s *heosSettingsStore) Get(ctx context.Context, profileID int64) (*HEOSSettings, error) {
	h := &HEOSSettings{}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, control_port, static_host, sync_interval_seconds, volume_step,
		       dial_device, dial_baud, dial_player_id, mqtt_broker_url, mqtt_topic_prefix, mqtt_listen, updated_at
		FROM heos_settings WHERE profile_id = ?
	`, profileID).Scan(
		&h.ID, &h.ProfileID, &h.ControlPort, &h.StaticHost, &h.SyncIntervalSeconds, &h.VolumeStep,
		&h.DialDevice, &h.DialBaud, &h.DialPlayerID, &h.MQTTBrokerURL, &h.MQTTTopicPrefix, &h.MQTTListen, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHEOSSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	h.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return h, nil
}

func (s *heosSettingsStore) Create(ctx context.Context, h *HEOSSettings) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO heos_settings (
			profile_id, control_port, static_host, sync_interval_seconds, volume_step,
			dial_device, dial_baud, dial_player_id, mqtt_broker_url, mqtt_topic_prefix, mqtt_listen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ProfileID, h.ControlPort, h.StaticHost, h.SyncIntervalSeconds, h.VolumeStep,
		h.DialDevice, h.DialBaud, h.DialPlayerID, h.MQTTBrokerURL, h.MQTTTopicPrefix, h.MQTTListen)
	if err != nil {
		return fmt.Errorf("failed to create heos settings: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (s *heosSettingsStore) Update(ctx context.Context, h *HEOSSettings) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE heos_settings SET
			control_port = ?, static_host = ?, sync_interval_seconds = ?, volume_step = ?,
			dial_device = ?, dial_baud = ?, dial_player_id = ?,
			mqtt_broker_url = ?, mqtt_topic_prefix = ?, mqtt_listen = ?, updated_at = datetime('now')
		WHERE profile_id = ?
	`, h.ControlPort, h.StaticHost, h.SyncIntervalSeconds, h.VolumeStep,
		h.DialDevice, h.DialBaud, h.DialPlayerID,
		h.MQTTBrokerURL, h.MQTTTopicPrefix, h.MQTTListen, h.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to update heos settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrHEOSSettingsNotFound
	}
	return nil
}

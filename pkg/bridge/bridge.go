package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/heosdial/pkg/device"
)

const (
	keepAlive       = 20
	sessionExpiry   = 60
	publishTimeout  = 5 * time.Second
	snapshotTimeout = 30 * time.Second
)

// Config configures the MQTT bridge.
type Config struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// Bridge mirrors player and group state to MQTT and applies state changes
// published on the set topics.
type Bridge struct {
	ctrl   device.Controller
	events device.EventSubscriber
	cfg    Config
	topics Topics
}

// StatePayload is published, retained, on a state topic.
type StatePayload struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	State     device.DeviceState `json:"state"`
	JobID     string             `json:"job_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// New creates a bridge. events may be nil, in which case state is only
// published on connect.
func New(ctrl device.Controller, events device.EventSubscriber, cfg Config) *Bridge {
	if cfg.ClientID == "" {
		cfg.ClientID = "heosdial"
	}
	return &Bridge{
		ctrl:   ctrl,
		events: events,
		cfg:    cfg,
		topics: NewTopics(cfg.TopicPrefix),
	}
}

// Topics returns the topic layout the bridge uses.
func (b *Bridge) Topics() Topics {
	return b.topics
}

// Run connects to the broker and bridges until ctx is cancelled. The
// connection is re-established automatically while Run is active.
func (b *Bridge) Run(ctx context.Context) error {
	u, err := url.Parse(b.cfg.BrokerURL)
	if err != nil {
		return fmt.Errorf("parse broker url: %w", err)
	}

	// The connection outlives ctx long enough to announce going offline.
	connCtx, connCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer connCancel()

	cm, err := autopaho.NewConnection(connCtx, b.clientConfig(u))
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}

	var events chan device.Event
	if b.events != nil {
		events = b.events.Subscribe()
		defer b.events.Unsubscribe(events)
	}

	for {
		select {
		case <-ctx.Done():
			b.shutdown(cm)
			return nil
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			b.handleEvent(ctx, cm, evt)
		}
	}
}

func (b *Bridge) clientConfig(u *url.URL) autopaho.ClientConfig {
	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     keepAlive,
		CleanStartOnInitialConnection: false,
		SessionExpiryInterval:         sessionExpiry,
		WillMessage: &paho.WillMessage{
			Topic:   b.topics.Status(),
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Info().Str("broker", u.String()).Msg("MQTT connection up")
			// Subscriptions are renewed on every reconnect.
			go b.onConnected(cm)
		},
		OnConnectError: func(err error) {
			log.Warn().Err(err).Str("broker", u.String()).Msg("MQTT connection attempt failed")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: b.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					b.handleSet(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				log.Warn().Err(err).Msg("MQTT client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				log.Warn().Uint8("reason", d.ReasonCode).Msg("MQTT server requested disconnect")
			},
		},
	}
	if b.cfg.Username != "" {
		cfg.ConnectUsername = b.cfg.Username
		cfg.ConnectPassword = []byte(b.cfg.Password)
	}
	return cfg
}

func (b *Bridge) onConnected(cm *autopaho.ConnectionManager) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	subs := make([]paho.SubscribeOptions, 0, 2)
	for _, filter := range b.topics.SetFilters() {
		subs = append(subs, paho.SubscribeOptions{Topic: filter, QoS: 1})
	}
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs}); err != nil {
		log.Error().Err(err).Msg("MQTT subscribe failed; set commands will not be received")
	}

	b.publish(ctx, cm, b.topics.Status(), []byte("online"), true)
	b.publishSnapshot(ctx, cm)
}

// publishSnapshot publishes the current state of every player and group.
func (b *Bridge) publishSnapshot(ctx context.Context, cm *autopaho.ConnectionManager) {
	players, err := b.ctrl.ListDevices(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list players for MQTT snapshot")
		return
	}
	for _, p := range players {
		state, err := b.ctrl.GetDeviceState(ctx, p.ID)
		if err != nil {
			log.Debug().Err(err).Str("player_id", p.ID).Msg("Skipping player in MQTT snapshot")
			continue
		}
		b.publishState(ctx, cm, device.TargetDevice, StatePayload{ID: p.ID, Name: p.Name, State: state, Timestamp: time.Now().UTC()})
	}

	groups, err := b.ctrl.ListGroups(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list groups for MQTT snapshot")
		return
	}
	for _, g := range groups {
		state, err := b.ctrl.GetGroupState(ctx, g.ID)
		if err != nil {
			log.Debug().Err(err).Str("group_id", g.ID).Msg("Skipping group in MQTT snapshot")
			continue
		}
		b.publishState(ctx, cm, device.TargetGroup, StatePayload{ID: g.ID, Name: g.Name, State: state, Timestamp: time.Now().UTC()})
	}
}

func (b *Bridge) handleEvent(ctx context.Context, cm *autopaho.ConnectionManager, evt device.Event) {
	switch {
	case evt.Type == device.EventDeviceUpdated && evt.Device != nil:
		b.publishState(ctx, cm, device.TargetDevice, StatePayload{
			ID: evt.Device.ID, Name: evt.Device.Name, State: evt.State, JobID: evt.JobID, Timestamp: evt.Timestamp,
		})
	case evt.Type == device.EventGroupUpdated && evt.Group != nil:
		b.publishState(ctx, cm, device.TargetGroup, StatePayload{
			ID: evt.Group.ID, Name: evt.Group.Name, State: evt.State, JobID: evt.JobID, Timestamp: evt.Timestamp,
		})
	}

	// Every event, state updates included, is also mirrored on the events topic.
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("type", evt.Type).Msg("Failed to encode event")
		return
	}
	b.publish(ctx, cm, b.topics.Events(), payload, false)
}

func (b *Bridge) publishState(ctx context.Context, cm *autopaho.ConnectionManager, target device.Target, p StatePayload) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("id", p.ID).Msg("Failed to encode state")
		return
	}
	b.publish(ctx, cm, b.topics.State(target, p.ID), payload, true)
}

func (b *Bridge) publish(ctx context.Context, cm *autopaho.ConnectionManager, topic string, payload []byte, retain bool) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if _, err := cm.Publish(ctx, &paho.Publish{
		QoS:     1,
		Topic:   topic,
		Payload: payload,
		Retain:  retain,
	}); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("topic", topic).Msg("MQTT publish failed")
	}
}

// handleSet dispatches a state change received on a set topic. The outcome
// comes back as a controller event and is published from there.
func (b *Bridge) handleSet(topic string, payload []byte) {
	target, id, ok := b.topics.ParseSet(topic)
	if !ok {
		return
	}

	var state map[string]any
	if err := json.Unmarshal(payload, &state); err != nil || len(state) == 0 {
		log.Warn().Str("topic", topic).Msg("Ignoring set message without a JSON object payload")
		return
	}

	jobID := b.ctrl.Dispatch(target, id, state)
	log.Debug().Str("job_id", jobID).Str("topic", topic).Msg("MQTT set dispatched")
}

func (b *Bridge) shutdown(cm *autopaho.ConnectionManager) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	b.publish(ctx, cm, b.topics.Status(), []byte("offline"), true)
	if err := cm.Disconnect(ctx); err != nil {
		log.Debug().Err(err).Msg("MQTT disconnect")
	}
	log.Info().Msg("MQTT bridge stopped")
}

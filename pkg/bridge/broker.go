package bridge

import (
	"fmt"
	"log/slog"
	"os"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/rs/zerolog/log"
)

// Broker is an embedded MQTT broker for installations without one.
type Broker struct {
	server *mqtt.Server
	addr   string
}

// NewBroker creates a broker that will accept any client on addr.
func NewBroker(addr string) (*Broker, error) {
	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})

	// The broker is meant for the local network only.
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add auth hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{ID: "heosdial", Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	return &Broker{server: server, addr: addr}, nil
}

// Start serves clients in the background.
func (b *Broker) Start() {
	go func() {
		if err := b.server.Serve(); err != nil {
			log.Error().Err(err).Str("addr", b.addr).Msg("MQTT broker stopped")
		}
	}()
	log.Info().Str("addr", b.addr).Msg("Embedded MQTT broker started")
}

// URL returns the address clients use to reach the broker.
func (b *Broker) URL() string {
	return "mqtt://" + b.addr
}

// Close disconnects all clients and stops the listener.
func (b *Broker) Close() error {
	return b.server.Close()
}

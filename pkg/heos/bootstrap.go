package heos

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Bootstrap consumes discovery locations until a device accepts a
// connection and returns it connected. Unreachable or unparsable
// locations are logged and skipped. It returns ErrNoDevice if locations
// closes first, or ctx's error if ctx ends first.
func Bootstrap(ctx context.Context, locations <-chan string, port int) (*Device, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case loc, ok := <-locations:
			if !ok {
				return nil, ErrNoDevice
			}

			d, err := DeviceFromLocation(loc)
			if err != nil {
				log.Debug().Err(err).Str("location", loc).Msg("Skipping discovery location")
				continue
			}
			d.Port = port

			if err := d.Connect(ctx); err != nil {
				log.Warn().Err(err).Str("host", d.Host).Msg("HEOS device unreachable")
				continue
			}

			log.Info().Str("host", d.Host).Msg("Connected to HEOS device")
			return d, nil
		}
	}
}

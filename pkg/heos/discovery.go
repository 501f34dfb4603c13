package heos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/ipv4"
)

// SSDP discovery constants
const (
	SSDPMulticastAddr = "239.255.255.250:1900"
	TargetURN         = "urn:schemas-denon-com:device:ACT-Denon:1"

	discoveryMX      = 5
	discoveryBufSize = 2048
)

// discoveryRequest is the M-SEARCH datagram; %s is the search target.
const discoveryRequest = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: " + SSDPMulticastAddr + "\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"MX: %d\r\n" +
	"ST: %s\r\n" +
	"\r\n"

// Discoverer is a single SSDP discovery session. It is not restartable:
// create a new Discoverer to search again.
type Discoverer struct {
	conn    net.PacketConn
	target  *net.UDPAddr
	urn     string
	started atomic.Bool
}

type discoveryOptions struct {
	conn   net.PacketConn
	target *net.UDPAddr
	iface  *net.Interface
	urn    string
}

// DiscoveryOption configures a Discoverer.
type DiscoveryOption func(*discoveryOptions)

// WithPacketConn uses an already bound socket and skips the multicast join.
func WithPacketConn(conn net.PacketConn) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.conn = conn
	}
}

// WithSearchTarget sends the M-SEARCH to addr instead of the SSDP group.
func WithSearchTarget(addr *net.UDPAddr) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.target = addr
	}
}

// WithInterface joins the multicast group on a specific interface.
func WithInterface(iface *net.Interface) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.iface = iface
	}
}

// WithURN searches for a different device type.
func WithURN(urn string) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.urn = urn
	}
}

// NewDiscoverer binds an ephemeral UDP port and joins the SSDP multicast group.
// Bind and join failures are returned before any discovery takes place.
func NewDiscoverer(opts ...DiscoveryOption) (*Discoverer, error) {
	o := discoveryOptions{urn: TargetURN}
	for _, opt := range opts {
		opt(&o)
	}

	if o.target == nil {
		addr, err := net.ResolveUDPAddr("udp4", SSDPMulticastAddr)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", SSDPMulticastAddr, err)
		}
		o.target = addr
	}

	conn := o.conn
	if conn == nil {
		c, err := net.ListenPacket("udp4", "0.0.0.0:0")
		if err != nil {
			return nil, fmt.Errorf("bind discovery socket: %w", err)
		}

		p := ipv4.NewPacketConn(c)
		if err := p.JoinGroup(o.iface, &net.UDPAddr{IP: o.target.IP}); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("join multicast group %s: %w", o.target.IP, err)
		}
		conn = c
	}

	log.Debug().Str("local", conn.LocalAddr().String()).Msg("SSDP socket ready")

	return &Discoverer{
		conn:   conn,
		target: o.target,
		urn:    o.urn,
	}, nil
}

// Discover sends one M-SEARCH and returns a channel of device LOCATION URLs.
// The channel is unbounded in time and closes when ctx is cancelled or the
// socket fails. Datagrams that don't match the search target are skipped.
func (d *Discoverer) Discover(ctx context.Context) (<-chan string, error) {
	if !d.started.CompareAndSwap(false, true) {
		return nil, ErrDiscoveryStarted
	}

	request := fmt.Sprintf(discoveryRequest, discoveryMX, d.urn)
	if _, err := d.conn.WriteTo([]byte(request), d.target); err != nil {
		return nil, fmt.Errorf("send M-SEARCH: %w", err)
	}

	log.Debug().Str("target", d.target.String()).Str("urn", d.urn).Msg("SSDP TX M-SEARCH")

	out := make(chan string)
	go d.receiveLoop(ctx, out)
	return out, nil
}

// Close releases the discovery socket.
func (d *Discoverer) Close() error {
	return d.conn.Close()
}

func (d *Discoverer) receiveLoop(ctx context.Context, out chan<- string) {
	defer close(out)

	// Unblock ReadFrom once the caller is done.
	stop := context.AfterFunc(ctx, func() {
		_ = d.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, discoveryBufSize)
	for {
		n, from, err := d.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			log.Error().Err(err).Msg("SSDP read error")
			return
		}

		if !utf8.Valid(buf[:n]) {
			log.Debug().Str("from", from.String()).Msg("SSDP datagram is not UTF-8, skipping")
			continue
		}

		response := string(buf[:n])
		if !strings.Contains(response, d.urn) {
			log.Debug().Str("from", from.String()).Msg("SSDP datagram for other device type, skipping")
			continue
		}

		location, err := ParseLocation(response)
		if err != nil {
			log.Debug().Err(err).Str("from", from.String()).Msg("SSDP response without location, skipping")
			continue
		}

		log.Debug().Str("from", from.String()).Str("location", location).Msg("SSDP RX response")

		select {
		case out <- location:
		case <-ctx.Done():
			return
		}
	}
}

// ParseLocation extracts the LOCATION header value from an SSDP response.
func ParseLocation(response string) (string, error) {
	headers, _, _ := strings.Cut(response, "\r\n\r\n")
	for _, line := range strings.Split(headers, "\r\n") {
		if !strings.Contains(strings.ToUpper(line), "LOCATION") {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if location := strings.TrimSpace(value); location != "" {
			return location, nil
		}
	}
	return "", fmt.Errorf("no LOCATION header in SSDP response")
}

// HostFromLocation returns the host part of a device description URL.
func HostFromLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", location, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("location %q has no host", location)
	}
	return host, nil
}

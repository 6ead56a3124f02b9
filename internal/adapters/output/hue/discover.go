package hue

import (
	"context"
	"errors"
	"fmt"

	"github.com/amimof/huego"
	"github.com/rs/zerolog"
)

var ErrNoBridge = errors.New("hue: no bridge found")

// Searcher finds a bridge on the local network.
type Searcher interface {
	Search(ctx context.Context) (string, error)
}

// Discover returns the bridge host: the N-UPnP portal first, then a local
// network search when the portal is unreachable or knows no bridge.
func Discover(ctx context.Context, fallback Searcher, log zerolog.Logger) (string, error) {
	b, err := huego.Discover()
	if err == nil && b != nil && b.Host != "" {
		log.Info().Str("host", b.Host).Str("method", "nupnp").Msg("bridge discovered")
		return b.Host, nil
	}
	log.Warn().Err(err).Msg("nupnp discovery failed, searching local network")

	if fallback == nil {
		return "", ErrNoBridge
	}
	host, serr := fallback.Search(ctx)
	if serr != nil {
		return "", fmt.Errorf("%w: %w", ErrNoBridge, errors.Join(err, serr))
	}
	log.Info().Str("host", host).Str("method", "ssdp").Msg("bridge discovered")
	return host, nil
}

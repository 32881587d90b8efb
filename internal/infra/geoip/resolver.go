// Package geoip adapts a MaxMind GeoIP2 database into the country hints the
// region middleware uses when a campaign request carries no explicit market.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when no database is loaded.
var ErrUnavailable = errors.New("geoip: database not loaded")

// Resolver maps client IPs to ISO 3166-1 alpha-2 country codes.
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the GeoIP2 country database at path. An empty path disables
// lookups: the returned Resolver is nil and its methods stay safe to call.
func Open(path string, logger zerolog.Logger) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	meta := reader.Metadata()
	logger.Info().
		Str("path", path).
		Str("type", meta.DatabaseType).
		Time("built", time.Unix(int64(meta.BuildEpoch), 0)).
		Msg("geoip: database loaded")
	return &Resolver{reader: reader}, nil
}

// CountryCode resolves ip to an upper-case ISO country code. Addresses the
// database does not cover resolve to "" with no error.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	if record == nil {
		return "", nil
	}
	return strings.ToUpper(record.Country.IsoCode), nil
}

// Close releases the memory-mapped database.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

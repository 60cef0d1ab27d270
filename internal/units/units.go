// Package units converts operator supplied quota strings into byte counts.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

var ErrInvalidQuota = errors.New("invalid quota input")

var multipliers = map[byte]int64{
	'k': units.KiB,
	'm': units.MiB,
	'g': units.GiB,
	't': units.TiB,
	'p': units.PiB,
}

// Convert parses a plain byte count ("500") or an integer followed by one
// of K, M, G, T, P (any case), each a power of 1024.
func Convert(text string) (int64, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if len(text) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuota, text)
	}

	mult, ok := multipliers[strings.ToLower(text[len(text)-1:])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidQuota, text)
	}

	n, err := strconv.ParseInt(text[:len(text)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuota, text)
	}
	if n > math.MaxInt64/mult || n < math.MinInt64/mult {
		return 0, fmt.Errorf("%w: %q overflows a 64-bit byte count", ErrInvalidQuota, text)
	}

	return n * mult, nil
}

// Human renders a byte count with binary units, e.g. "5GiB".
func Human(n int64) string {
	return units.BytesSize(float64(n))
}

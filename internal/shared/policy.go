package shared

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// DefaultRateLimit is the transfer ceiling applied when no session cookies are supplied.
const DefaultRateLimit = "1M"

// NoRateLimit explicitly requests an unlimited transfer rate.
const NoRateLimit = "none"

// DelayPolicy is the pause a worker takes between two job starts.
//
// Min == Max is a fixed delay; otherwise a uniform sample in [Min, Max].
type DelayPolicy struct {
	Min time.Duration
	Max time.Duration
}

// ParseDelay parses "N" (fixed seconds) or "min,max" (uniform range in seconds).
//
// An empty string means no delay.
func ParseDelay(s string) (DelayPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DelayPolicy{}, nil
	}

	lo, hi, isRange := strings.Cut(s, ",")
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	if !isRange {
		d, err := parseSeconds(lo)
		if err != nil {
			return DelayPolicy{}, err
		}
		return DelayPolicy{Min: d, Max: d}, nil
	}

	switch {
	case lo == "" && hi == "":
		return DelayPolicy{}, fmt.Errorf("%w: sleep %q", ErrInvalidConfig, s)
	case lo == "" || hi == "":
		d, err := parseSeconds(lo + hi)
		if err != nil {
			return DelayPolicy{}, err
		}
		return DelayPolicy{Min: d, Max: d}, nil
	}

	min, err := parseSeconds(lo)
	if err != nil {
		return DelayPolicy{}, err
	}
	max, err := parseSeconds(hi)
	if err != nil {
		return DelayPolicy{}, err
	}
	if max < min {
		return DelayPolicy{}, fmt.Errorf("%w: sleep range %q is inverted", ErrInvalidConfig, s)
	}
	return DelayPolicy{Min: min, Max: max}, nil
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: sleep value %q", ErrInvalidConfig, s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// IsZero reports whether the policy never delays.
func (d DelayPolicy) IsZero() bool {
	return d.Max <= 0
}

// Next returns the delay before the next job start.
func (d DelayPolicy) Next(rng *rand.Rand) time.Duration {
	if d.Max <= d.Min || rng == nil {
		return d.Min
	}
	return d.Min + time.Duration(rng.Int64N(int64(d.Max-d.Min)+1))
}

func (d DelayPolicy) String() string {
	switch {
	case d.IsZero():
		return "none"
	case d.Min == d.Max:
		return d.Min.String()
	default:
		return d.Min.String() + "-" + d.Max.String()
	}
}

// ParseRate parses a yt-dlp style rate ("500K", "1.5M", "2G", "800") into bytes per second.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	orig := s
	if s == "" {
		return 0, fmt.Errorf("%w: empty rate", ErrInvalidConfig)
	}

	mult := 1.0
	switch suffix := strings.ToUpper(s[len(s)-1:]); suffix {
	case "K":
		mult = 1 << 10
	case "M":
		mult = 1 << 20
	case "G":
		mult = 1 << 30
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%w: rate %q", ErrInvalidConfig, orig)
	}
	return f * mult, nil
}

// ResolveRateLimit returns the transfer ceiling passed to the fetch operation ("" means none).
//
// "none" or "0" always disables the ceiling. Without cookies an empty or higher request
// is tightened to [DefaultRateLimit].
func ResolveRateLimit(requested string, hasCookies bool) (string, error) {
	requested = strings.TrimSpace(requested)
	if strings.EqualFold(requested, NoRateLimit) || requested == "0" {
		return "", nil
	}

	if requested != "" {
		if _, err := ParseRate(requested); err != nil {
			return "", err
		}
	}

	if hasCookies {
		return requested, nil
	}
	if requested == "" {
		return DefaultRateLimit, nil
	}

	want, _ := ParseRate(requested)
	ceiling, _ := ParseRate(DefaultRateLimit)
	if want > ceiling {
		return DefaultRateLimit, nil
	}
	return requested, nil
}

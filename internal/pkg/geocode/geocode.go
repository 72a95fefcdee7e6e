package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout  = 3 * time.Second
	DefaultCacheTTL = 24 * time.Hour
)

var ErrNoAddress = errors.New("geocoder returned no address")

// Cache stores resolved addresses. A miss reports ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Config struct {
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client is a Nominatim-compatible reverse geocoder.
type Client struct {
	config Config
	http   *http.Client
	cache  Cache
	logger *slog.Logger
}

// NewClient builds a client; cache may be nil.
func NewClient(cfg Config, cache Cache, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hris-attendance/1.0"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// CacheKey rounds to 4 decimals, roughly 11 m, so nearby readings share an entry.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:reverse:%.4f,%.4f", lat, lon)
}

// Reverse returns the display address of a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	key := CacheKey(lat, lon)
	if c.cache != nil {
		if v, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.DebugContext(ctx, "geocode cache read failed", slog.Any("error", err))
		} else if ok {
			return v, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.Language != "" {
		req.Header.Set("Accept-Language", c.config.Language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", ErrNoAddress
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body.DisplayName, c.config.CacheTTL); err != nil {
			c.logger.DebugContext(ctx, "geocode cache write failed", slog.Any("error", err))
		}
	}
	return body.DisplayName, nil
}

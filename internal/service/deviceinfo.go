package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/woothee/woothee-go"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/util"
)

// LocationCache is implemented by the redis-backed cache; lookups are
// keyed by client IP.
type LocationCache interface {
	GetLocation(ctx context.Context, ip string) (*models.DeviceInfo, error)
	SetLocation(ctx context.Context, ip string, info models.DeviceInfo, ttl time.Duration) error
}

// DeviceInfoProvider supplies the client metadata stored with a session.
type DeviceInfoProvider interface {
	Collect(ctx context.Context, ip, userAgent string) (models.DeviceInfo, error)
}

const lookupTimeout = 3 * time.Second

// DeviceInfoService resolves OS from the user-agent string and coarse
// location from an external ip-geolocation API. Location lookups are
// cached; a failed lookup degrades to an empty location and never fails
// the auth flow.
type DeviceInfoService struct {
	client *http.Client
	cache  LocationCache
	cfg    *util.LocationConfig
	log    *zap.SugaredLogger
}

func NewDeviceInfoService(cache LocationCache, cfg *util.LocationConfig, log *zap.SugaredLogger) *DeviceInfoService {
	return &DeviceInfoService{
		client: &http.Client{Timeout: lookupTimeout},
		cache:  cache,
		cfg:    cfg,
		log:    log,
	}
}

func (s *DeviceInfoService) Collect(ctx context.Context, ip, userAgent string) (models.DeviceInfo, error) {
	info := models.DeviceInfo{
		IP: ip,
		OS: parseOS(userAgent),
	}

	if cached, err := s.cache.GetLocation(ctx, ip); err != nil {
		s.log.Warnw("Location cache read failed", "error", err)
	} else if cached != nil {
		info.Country = cached.Country
		info.City = cached.City
		return info, nil
	}

	location, err := s.lookupLocation(ctx, ip)
	if err != nil {
		s.log.Warnw("Location lookup failed", "ip", ip, "error", err)
		return info, nil
	}
	info.Country = location.Country
	info.City = location.City

	if err := s.cache.SetLocation(ctx, ip, info, s.cfg.CacheTTL); err != nil {
		s.log.Warnw("Location cache write failed", "error", err)
	}

	return info, nil
}

type geoResponse struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

func (s *DeviceInfoService) lookupLocation(ctx context.Context, ip string) (geoResponse, error) {
	url := fmt.Sprintf("%s/%s", s.cfg.APIURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return geoResponse{}, fmt.Errorf("create location request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return geoResponse{}, fmt.Errorf("request location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geoResponse{}, fmt.Errorf("location api status %d", resp.StatusCode)
	}

	var location geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&location); err != nil {
		return geoResponse{}, fmt.Errorf("decode location: %w", err)
	}
	return location, nil
}

// Ping reports whether the geolocation API is reachable. Used by the
// health endpoint.
func (s *DeviceInfoService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.APIURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("location api status %d", resp.StatusCode)
	}
	return nil
}

func parseOS(userAgent string) string {
	result, err := woothee.Parse(userAgent)
	if err != nil || result == nil {
		return "Unknown"
	}
	if result.Os != "" && result.Os != woothee.ValueUnknown {
		return result.Os
	}
	return result.Name
}

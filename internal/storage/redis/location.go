package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Efimish/whisper-backend/internal/models"
)

const locationKeyPrefix = "location:"

// LocationCache stores geo-lookup results per client IP so repeated
// logins from one address do not hit the external API again.
type LocationCache struct {
	client *redis.Client
}

func NewLocationCache(client *redis.Client) *LocationCache {
	return &LocationCache{client: client}
}

func (c *LocationCache) GetLocation(ctx context.Context, ip string) (*models.DeviceInfo, error) {
	result, err := c.client.Get(ctx, locationKeyPrefix+ip).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var info models.DeviceInfo
	if err := json.Unmarshal([]byte(result), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *LocationCache) SetLocation(ctx context.Context, ip string, info models.DeviceInfo, ttl time.Duration) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, locationKeyPrefix+ip, payload, ttl).Err()
}

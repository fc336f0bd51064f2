package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-booking-bot/internal/models"
)

// RedisGeo implements Store using Redis GEO commands plus a metadata hash.
type RedisGeo struct {
	client *redis.Client
	key    string
}

func NewRedisGeo(addr, password, key string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, key: key}
}

func (r *RedisGeo) Upsert(ctx context.Context, loc models.OperatorLocation) error {
	if loc.Updated.IsZero() {
		loc.Updated = time.Now()
	}
	if err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{Longitude: loc.Loc.Lon, Latitude: loc.Loc.Lat, Name: loc.OperatorID}).Err(); err != nil {
		return fmt.Errorf("geoadd: %w", err)
	}
	if err := r.client.HSet(ctx, MetaKey(loc.OperatorID), MetaFields(loc)).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func (r *RedisGeo) Current(ctx context.Context, operatorID string) (models.OperatorLocation, error) {
	pos, err := r.client.GeoPos(ctx, r.key, operatorID).Result()
	if err != nil {
		return models.OperatorLocation{}, fmt.Errorf("geopos: %w", err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return models.OperatorLocation{}, ErrUnknownOperator
	}
	loc := models.OperatorLocation{
		OperatorID: operatorID,
		Loc:        models.Coord{Lat: pos[0].Latitude, Lon: pos[0].Longitude},
	}
	if m, err := r.client.HGetAll(ctx, MetaKey(operatorID)).Result(); err == nil {
		applyMeta(&loc, m)
	}
	return loc, nil
}

func (r *RedisGeo) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisGeo) Close() error { return r.client.Close() }

func MetaKey(id string) string { return "operator:meta:" + id }

// MetaFields is the hash layout stored next to the GEO entry.
func MetaFields(loc models.OperatorLocation) map[string]interface{} {
	return map[string]interface{}{
		"accuracy": strconv.FormatFloat(loc.Accuracy, 'f', -1, 64),
		"address":  loc.Address,
		"city":     loc.City,
		"region":   loc.Region,
		"country":  loc.Country,
		"source":   loc.Source,
		"updated":  loc.Updated.Format(time.RFC3339),
	}
}

func applyMeta(loc *models.OperatorLocation, m map[string]string) {
	if v, ok := m["accuracy"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			loc.Accuracy = f
		}
	}
	loc.Address = m["address"]
	loc.City = m["city"]
	loc.Region = m["region"]
	loc.Country = m["country"]
	loc.Source = m["source"]
	if v, ok := m["updated"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			loc.Updated = t
		}
	}
}

// Package latestcache keeps vehicle latest locations in Redis in front of the store.
package latestcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
	"github.com/travigo/geotrack/pkg/util"
)

const defaultTTL = 10 * time.Minute

// storeIfNewer writes ARGV[1] unless the cached entry carries an order at or above ARGV[2].
// Orders are fixed width so byte comparison follows device time then sequence.
var storeIfNewer = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == "table" and type(decoded.order) == "string" and decoded.order >= ARGV[2] then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// GetTTL returns the cache expiry from GEOTRACK_LATEST_CACHE_TTL or the default.
func GetTTL() time.Duration {
	return util.Duration(util.GetEnvironmentVariables(), "GEOTRACK_LATEST_CACHE_TTL", defaultTTL)
}

type cachedLocation struct {
	Order           string     `json:"order"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	VehicleID       uuid.UUID  `json:"vehicle_id"`
	GpsFixID        uuid.UUID  `json:"gps_fix_id"`
	DeviceTimeUTC   time.Time  `json:"device_time_utc"`
	ReceivedAtUTC   time.Time  `json:"received_at_utc"`
	DeviceSequence  int64      `json:"device_sequence"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	SpeedKph        *float64   `json:"speed_kph,omitempty"`
	HeadingDegrees  *float64   `json:"heading_degrees,omitempty"`
	AccuracyMeters  *float64   `json:"accuracy_meters,omitempty"`
	RouteScheduleID *uuid.UUID `json:"route_schedule_id,omitempty"`
	UpdatedAtUTC    time.Time  `json:"updated_at_utc"`
}

func fromSnapshot(snapshot *tracking.VehicleLatestLocation) cachedLocation {
	params := snapshot.Params()

	return cachedLocation{
		Order:           orderOf(snapshot.OrderKey()),
		TenantID:        params.TenantID,
		VehicleID:       params.VehicleID,
		GpsFixID:        params.GpsFixID,
		DeviceTimeUTC:   params.DeviceTimeUTC,
		ReceivedAtUTC:   params.ReceivedAtUTC,
		DeviceSequence:  params.DeviceSequence,
		Latitude:        params.Latitude,
		Longitude:       params.Longitude,
		SpeedKph:        params.SpeedKph,
		HeadingDegrees:  params.HeadingDegrees,
		AccuracyMeters:  params.AccuracyMeters,
		RouteScheduleID: params.RouteScheduleID,
		UpdatedAtUTC:    params.UpdatedAtUTC,
	}
}

func orderOf(key tracking.OrderKey) string {
	return fmt.Sprintf("%s/%019d", key.DeviceTime.UTC().Format("2006-01-02T15:04:05.000000000"), key.Sequence)
}

func (c cachedLocation) snapshot() (*tracking.VehicleLatestLocation, error) {
	return tracking.NewVehicleLatestLocation(tracking.VehicleLatestLocationParams{
		TenantID:        c.TenantID,
		VehicleID:       c.VehicleID,
		GpsFixID:        c.GpsFixID,
		DeviceTimeUTC:   c.DeviceTimeUTC.UTC(),
		ReceivedAtUTC:   c.ReceivedAtUTC.UTC(),
		DeviceSequence:  c.DeviceSequence,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		SpeedKph:        c.SpeedKph,
		HeadingDegrees:  c.HeadingDegrees,
		AccuracyMeters:  c.AccuracyMeters,
		RouteScheduleID: c.RouteScheduleID,
		UpdatedAtUTC:    c.UpdatedAtUTC.UTC(),
	})
}

// Cache is a read-through cache of latest locations. Entries are refreshed from
// ingestion reports and expire after the configured TTL. A write never replaces an
// entry whose snapshot is at least as new.
type Cache struct {
	cache   *cache.Cache[string]
	client  *redis.Client
	backing storage.LatestLocationReader
	ttl     time.Duration
}

func New(client *redis.Client, backing storage.LatestLocationReader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &Cache{
		cache:   cache.New[string](redisStore),
		client:  client,
		backing: backing,
		ttl:     ttl,
	}
}

func cacheKey(tenantID, vehicleID uuid.UUID) string {
	return fmt.Sprintf("latest_location:%s:%s", tenantID, vehicleID)
}

func (c *Cache) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error) {
	if cached, ok := c.get(ctx, tenantID, vehicleID); ok {
		return cached, nil
	}

	snapshot, err := c.backing.LatestLocation(ctx, tenantID, vehicleID)
	if err != nil || snapshot == nil {
		return snapshot, err
	}

	c.set(ctx, snapshot)

	return snapshot, nil
}

func (c *Cache) Invalidate(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	return c.cache.Delete(ctx, cacheKey(tenantID, vehicleID))
}

// Observe stores every snapshot an ingestion applied, unless a newer one is already cached.
func (c *Cache) Observe(ctx context.Context, report ingest.Report) {
	for _, snapshot := range report.Applied {
		c.set(ctx, snapshot)
	}
}

func (c *Cache) get(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, bool) {
	value, err := c.cache.Get(ctx, cacheKey(tenantID, vehicleID))
	if err != nil {
		// Misses surface as errors from the redis store
		log.Debug().Err(err).Str("vehicle", vehicleID.String()).Msg("Latest location cache miss")
		return nil, false
	}
	if value == "" {
		return nil, false
	}

	var cached cachedLocation
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID.String()).Msg("Discarding unreadable cached latest location")
		return nil, false
	}

	snapshot, err := cached.snapshot()
	if err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID.String()).Msg("Discarding invalid cached latest location")
		return nil, false
	}

	return snapshot, true
}

func (c *Cache) set(ctx context.Context, snapshot *tracking.VehicleLatestLocation) {
	cached := fromSnapshot(snapshot)

	encoded, err := json.Marshal(cached)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode latest location")
		return
	}

	key := cacheKey(snapshot.TenantID(), snapshot.VehicleID())
	stored, err := storeIfNewer.Run(ctx, c.client, []string{key}, string(encoded), cached.Order, c.ttl.Milliseconds()).Int()
	if err != nil {
		log.Warn().Err(err).Str("vehicle", snapshot.VehicleID().String()).Msg("Failed to cache latest location")
		return
	}
	if stored == 0 {
		log.Debug().Str("vehicle", snapshot.VehicleID().String()).Msg("Newer latest location already cached")
	}
}

package geofence

import "math"

// ZoneType categorizes an authorized zone. Weight drops at a destination
// are expected unloading; everywhere else they need verification.
type ZoneType string

const (
	ZoneWarehouse   ZoneType = "warehouse"
	ZoneRestStop    ZoneType = "rest_stop"
	ZoneCheckpoint  ZoneType = "checkpoint"
	ZoneDestination ZoneType = "destination"
)

// Zone is a circular authorized region. Static configuration, never mutated.
type Zone struct {
	Name               string   `json:"name"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	RadiusKm           float64  `json:"radius_km"`
	Type               ZoneType `json:"zone_type"`
	MaxStopDurationMin int      `json:"max_stop_duration_min"`
}

// Service answers point-in-zone queries against a fixed zone list.
//
// Zones are checked in list order and the first match wins. The configured
// zones must not meaningfully overlap; if they do, earlier entries take
// priority. This is a configuration constraint, not a resolution policy.
type Service struct {
	zones []Zone
}

func NewService(zones []Zone) *Service {
	return &Service{zones: zones}
}

// DefaultZones is the Jamshedpur → Kolkata corridor used by the demo.
func DefaultZones() []Zone {
	return []Zone{
		{
			Name:               "Tata Steel Jamshedpur Plant",
			Latitude:           22.8046,
			Longitude:          86.2029,
			RadiusKm:           2.0,
			Type:               ZoneWarehouse,
			MaxStopDurationMin: 120,
		},
		{
			Name:               "Kharagpur Rest Stop",
			Latitude:           22.3460,
			Longitude:          87.3236,
			RadiusKm:           0.5,
			Type:               ZoneRestStop,
			MaxStopDurationMin: 30,
		},
		{
			Name:               "Kolaghat Checkpoint",
			Latitude:           22.4351,
			Longitude:          87.8863,
			RadiusKm:           0.3,
			Type:               ZoneCheckpoint,
			MaxStopDurationMin: 15,
		},
		{
			Name:               "Howrah Distribution Center",
			Latitude:           22.5958,
			Longitude:          88.2636,
			RadiusKm:           1.5,
			Type:               ZoneDestination,
			MaxStopDurationMin: 180,
		},
	}
}

const earthRadiusKm = 6371

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Locate reports whether the point lies inside an authorized zone and, if
// so, which one. Always returns a definite answer for valid coordinates.
func (s *Service) Locate(lat, lon float64) (bool, *Zone) {
	for i := range s.zones {
		z := &s.zones[i]
		if Haversine(lat, lon, z.Latitude, z.Longitude) <= z.RadiusKm {
			return true, z
		}
	}
	return false, nil
}

// MaxStopDuration returns the allowed stop duration in minutes at a point.
// Outside all zones no stop is allowed, so it returns 0.
func (s *Service) MaxStopDuration(lat, lon float64) int {
	if ok, zone := s.Locate(lat, lon); ok {
		return zone.MaxStopDurationMin
	}
	return 0
}

// Zones returns the configured zone list in priority order.
func (s *Service) Zones() []Zone {
	return s.zones
}

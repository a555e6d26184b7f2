package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

const (
	// earthRadiusMeters is the spherical Earth radius used by the haversine formula.
	earthRadiusMeters = 6371e3

	// SensitiveRadiusMeters is the distance under which a point counts as near a
	// sensitive zone and escalates complaint priority.
	SensitiveRadiusMeters = 200.0

	// DuplicateRadiusMeters is the distance under which an open complaint of the
	// same category suppresses a new report.
	DuplicateRadiusMeters = 100.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90,90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180,180]", p.Longitude)
	}
	return nil
}

// Distance returns the great-circle distance between two points in meters
// using the haversine formula on a spherical Earth.
func Distance(p1, p2 Point) float64 {
	phi1 := p1.Latitude * math.Pi / 180
	phi2 := p2.Latitude * math.Pi / 180
	dPhi := (p2.Latitude - p1.Latitude) * math.Pi / 180
	dLambda := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Zone is a configured sensitive location such as a hospital or school.
type Zone struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// ZoneSet answers proximity queries against a configured set of sensitive zones.
type ZoneSet struct {
	zones []Zone
}

func NewZoneSet(zones []Zone) *ZoneSet {
	return &ZoneSet{zones: zones}
}

// IsNearSensitive reports whether p lies within SensitiveRadiusMeters of any zone.
func (s *ZoneSet) IsNearSensitive(p Point) bool {
	for _, z := range s.zones {
		if Distance(p, Point{Latitude: z.Latitude, Longitude: z.Longitude}) < SensitiveRadiusMeters {
			return true
		}
	}
	return false
}

// Zones returns a copy of the configured zones.
func (s *ZoneSet) Zones() []Zone {
	out := make([]Zone, len(s.zones))
	copy(out, s.zones)
	return out
}

// defaultZones seeds deployments that do not configure SENSITIVE_ZONES.
var defaultZones = []Zone{
	{Name: "City Hospital", Latitude: 12.9716, Longitude: 77.5946},
	{Name: "Global School", Latitude: 12.9352, Longitude: 77.6245},
}

// ZonesFromEnv reads the sensitive-zone set from the SENSITIVE_ZONES environment
// variable (a JSON array of {name,lat,lng}), falling back to the default seed set.
func ZonesFromEnv() ([]Zone, error) {
	raw := strings.TrimSpace(os.Getenv("SENSITIVE_ZONES"))
	if raw == "" {
		return defaultZones, nil
	}

	var zones []Zone
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return nil, fmt.Errorf("failed to parse SENSITIVE_ZONES: %w", err)
	}
	return zones, nil
}

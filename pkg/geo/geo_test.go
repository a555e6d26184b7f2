package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cityHospital = Point{Latitude: 12.9716, Longitude: 77.5946}
	globalSchool = Point{Latitude: 12.9352, Longitude: 77.6245}
)

func TestDistanceIsSymmetric(t *testing.T) {
	assert.Equal(t, Distance(cityHospital, globalSchool), Distance(globalSchool, cityHospital))
}

func TestDistanceIdenticalPointsIsZero(t *testing.T) {
	assert.Zero(t, Distance(cityHospital, cityHospital))
	assert.Zero(t, Distance(globalSchool, globalSchool))
}

func TestDistanceLatitudeOffsetSanity(t *testing.T) {
	// ~0.0018 degrees of latitude is roughly 200m on a 6371km sphere.
	offset := Point{Latitude: cityHospital.Latitude + 0.0018, Longitude: cityHospital.Longitude}
	d := Distance(cityHospital, offset)
	assert.InDelta(t, 200, d, 5)
}

func TestDistanceHospitalToSchool(t *testing.T) {
	// The two seed zones are a few kilometers apart, far outside either radius.
	d := Distance(cityHospital, globalSchool)
	assert.Greater(t, d, DuplicateRadiusMeters)
	assert.Greater(t, d, SensitiveRadiusMeters)
}

func TestPointValidate(t *testing.T) {
	assert.NoError(t, Point{Latitude: 90, Longitude: -180}.Validate())
	assert.NoError(t, cityHospital.Validate())
	assert.Error(t, Point{Latitude: 90.01, Longitude: 0}.Validate())
	assert.Error(t, Point{Latitude: -91, Longitude: 0}.Validate())
	assert.Error(t, Point{Latitude: 0, Longitude: 180.5}.Validate())
	assert.Error(t, Point{Latitude: 0, Longitude: -181}.Validate())
}

func TestZoneSetProximity(t *testing.T) {
	zones := NewZoneSet([]Zone{
		{Name: "City Hospital", Latitude: cityHospital.Latitude, Longitude: cityHospital.Longitude},
	})

	assert.True(t, zones.IsNearSensitive(cityHospital))

	// ~100m north of the hospital is still inside the 200m radius.
	assert.True(t, zones.IsNearSensitive(Point{
		Latitude:  cityHospital.Latitude + 0.0009,
		Longitude: cityHospital.Longitude,
	}))

	// 5km away is well outside.
	assert.False(t, zones.IsNearSensitive(Point{
		Latitude:  cityHospital.Latitude + 0.045,
		Longitude: cityHospital.Longitude,
	}))
}

func TestZoneSetEmpty(t *testing.T) {
	assert.False(t, NewZoneSet(nil).IsNearSensitive(cityHospital))
}

func TestZonesFromEnv(t *testing.T) {
	t.Run("default seed set", func(t *testing.T) {
		t.Setenv("SENSITIVE_ZONES", "")
		zones, err := ZonesFromEnv()
		require.NoError(t, err)
		require.Len(t, zones, 2)
		assert.Equal(t, "City Hospital", zones[0].Name)
	})

	t.Run("configured set", func(t *testing.T) {
		t.Setenv("SENSITIVE_ZONES", `[{"name":"Clinic","lat":1.5,"lng":2.5}]`)
		zones, err := ZonesFromEnv()
		require.NoError(t, err)
		require.Len(t, zones, 1)
		assert.Equal(t, "Clinic", zones[0].Name)
		assert.Equal(t, 1.5, zones[0].Latitude)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Setenv("SENSITIVE_ZONES", "{not json")
		_, err := ZonesFromEnv()
		assert.Error(t, err)
	})
}

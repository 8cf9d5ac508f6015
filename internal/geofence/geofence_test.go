package geofence_test

import (
	"testing"

	"transit-guard/monitor/internal/geofence"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Jamshedpur plant to Howrah DC is roughly 212 km.
	d := geofence.Haversine(22.8046, 86.2029, 22.5958, 88.2636)
	if d < 200 || d > 225 {
		t.Errorf("Expected ~212 km, got %.1f", d)
	}

	if d := geofence.Haversine(22.5, 87.0, 22.5, 87.0); d != 0 {
		t.Errorf("Expected 0 for identical points, got %f", d)
	}
}

func TestLocateInsideZone(t *testing.T) {
	svc := geofence.NewService(geofence.DefaultZones())

	// Dead center of the Kharagpur rest stop.
	ok, zone := svc.Locate(22.3460, 87.3236)
	if !ok {
		t.Fatal("Expected point inside rest stop to be authorized")
	}
	if zone.Name != "Kharagpur Rest Stop" {
		t.Errorf("Expected Kharagpur Rest Stop, got %s", zone.Name)
	}
	if zone.Type != geofence.ZoneRestStop {
		t.Errorf("Expected rest_stop type, got %s", zone.Type)
	}
}

func TestLocateOutsideAllZones(t *testing.T) {
	svc := geofence.NewService(geofence.DefaultZones())

	// Open highway between waypoints.
	ok, zone := svc.Locate(22.5000, 86.8000)
	if ok {
		t.Error("Expected highway point to be unauthorized")
	}
	if zone != nil {
		t.Errorf("Expected nil zone, got %s", zone.Name)
	}
}

func TestMaxStopDuration(t *testing.T) {
	svc := geofence.NewService(geofence.DefaultZones())

	if got := svc.MaxStopDuration(22.3460, 87.3236); got != 30 {
		t.Errorf("Expected 30 min at rest stop, got %d", got)
	}
	if got := svc.MaxStopDuration(22.5000, 86.8000); got != 0 {
		t.Errorf("Expected 0 min outside zones, got %d", got)
	}
}

func TestFirstMatchWinsOnOverlap(t *testing.T) {
	// Two deliberately overlapping zones: the earlier entry must win.
	svc := geofence.NewService([]geofence.Zone{
		{Name: "first", Latitude: 10, Longitude: 10, RadiusKm: 5, Type: geofence.ZoneWarehouse, MaxStopDurationMin: 60},
		{Name: "second", Latitude: 10, Longitude: 10, RadiusKm: 10, Type: geofence.ZoneRestStop, MaxStopDurationMin: 15},
	})

	ok, zone := svc.Locate(10, 10)
	if !ok || zone.Name != "first" {
		t.Errorf("Expected first-listed zone to win, got %v", zone)
	}
}

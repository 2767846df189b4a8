package routes

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
)

// Station is a fixed stop on the shuttle network.
type Station struct {
	ID   string  `yaml:"id" json:"stop_id" validate:"required"`
	Name string  `yaml:"name" json:"name" validate:"required"`
	Lat  float64 `yaml:"lat" json:"lat" validate:"min=-90,max=90"`
	Lon  float64 `yaml:"lon" json:"lon" validate:"min=-180,max=180"`
}

// Route is an ordered, directional sequence of stops. The reverse direction
// is a separate route with its own stop order.
type Route struct {
	ID           string   `yaml:"route_id" json:"route_id" validate:"required"`
	Name         string   `yaml:"name" json:"name" validate:"required"`
	FromLocation string   `yaml:"from_location" json:"from_location"`
	ToLocation   string   `yaml:"to_location" json:"to_location"`
	StopIDs      []string `yaml:"stops" json:"stops" validate:"required,min=1"`
}

// registryFile is the on-disk shape of an optional route configuration file.
type registryFile struct {
	Stations []Station `yaml:"stations"`
	Routes   []Route   `yaml:"routes"`
}

// Registry holds the immutable station and route configuration. It is built
// once at startup and never mutated, so concurrent reads need no locking.
type Registry struct {
	stations map[string]Station
	routes   map[string]Route
}

// Load builds the registry from the compiled-in defaults, or from the YAML
// file at path when path is non-empty. The configuration is validated before
// the registry is returned.
func Load(path string) (*Registry, error) {
	stations := defaultStations()
	routeDefs := defaultRoutes()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read route config %s: %w", path, err)
		}
		var file registryFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse route config %s: %w", path, err)
		}
		stations = file.Stations
		routeDefs = file.Routes
	}

	v := validator.New()
	stationMap := make(map[string]Station, len(stations))
	for _, s := range stations {
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("invalid station %q: %w", s.ID, err)
		}
		stationMap[s.ID] = s
	}

	routeMap := make(map[string]Route, len(routeDefs))
	for _, r := range routeDefs {
		if err := v.Struct(r); err != nil {
			return nil, fmt.Errorf("invalid route %q: %w", r.ID, err)
		}
		for _, stopID := range r.StopIDs {
			if _, ok := stationMap[stopID]; !ok {
				return nil, fmt.Errorf("route %q references unknown stop %q", r.ID, stopID)
			}
		}
		routeMap[r.ID] = r
	}

	return &Registry{stations: stationMap, routes: routeMap}, nil
}

// Route returns the route definition for the given id.
func (r *Registry) Route(routeID string) (Route, bool) {
	route, ok := r.routes[routeID]
	return route, ok
}

// RouteStops returns the ordered stations for a route, or nil if the route
// is unknown.
func (r *Registry) RouteStops(routeID string) []Station {
	route, ok := r.routes[routeID]
	if !ok {
		return nil
	}
	stops := make([]Station, 0, len(route.StopIDs))
	for _, stopID := range route.StopIDs {
		if s, ok := r.stations[stopID]; ok {
			stops = append(stops, s)
		}
	}
	return stops
}

// Direction returns the human-readable direction label for a route.
func (r *Registry) Direction(routeID string) string {
	route, ok := r.routes[routeID]
	if !ok {
		return "Unknown"
	}
	return route.Name
}

// RouteIDs lists every configured route id.
func (r *Registry) RouteIDs() []string {
	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	return ids
}

// Routes lists every configured route.
func (r *Registry) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out
}

// Station returns the station with the given id.
func (r *Registry) Station(stationID string) (Station, bool) {
	s, ok := r.stations[stationID]
	return s, ok
}

// StationByName returns the station whose display name matches
// (case-insensitive, whitespace trimmed).
func (r *Registry) StationByName(name string) (Station, bool) {
	norm := strings.ToLower(strings.TrimSpace(name))
	for _, s := range r.stations {
		if strings.ToLower(s.Name) == norm {
			return s, true
		}
	}
	return Station{}, false
}

// RouteByLocations finds a route by its from/to location names
// (case-insensitive).
func (r *Registry) RouteByLocations(from, to string) (Route, bool) {
	fromNorm := strings.ToLower(strings.TrimSpace(from))
	toNorm := strings.ToLower(strings.TrimSpace(to))
	for _, route := range r.routes {
		if strings.ToLower(strings.TrimSpace(route.FromLocation)) == fromNorm &&
			strings.ToLower(strings.TrimSpace(route.ToLocation)) == toNorm {
			return route, true
		}
	}
	return Route{}, false
}

// NearestStation returns the station closest to the given coordinate and the
// distance to it in meters.
func (r *Registry) NearestStation(lat, lon float64) (Station, float64) {
	var nearest Station
	minDist := -1.0
	for _, s := range r.stations {
		d := geo.Haversine(lat, lon, s.Lat, s.Lon)
		if minDist < 0 || d < minDist {
			minDist = d
			nearest = s
		}
	}
	return nearest, minDist
}

// Package stations holds the fixed set of gauge stations the monitor watches
package stations

import (
	"errors"
	"fmt"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
)

// ErrStationNotFound is returned when a station identifier is not registered
var ErrStationNotFound = errors.New("station not found")

// Registry is an immutable, ordered table of station configurations
type Registry struct {
	stations []entities.StationConfig
	byID     map[string]entities.StationConfig
}

// NewRegistry builds a registry preserving the given order
func NewRegistry(configs []entities.StationConfig) (*Registry, error) {
	if len(configs) == 0 {
		return nil, errors.New("station registry is empty")
	}

	r := &Registry{
		stations: make([]entities.StationConfig, 0, len(configs)),
		byID:     make(map[string]entities.StationConfig, len(configs)),
	}
	for _, c := range configs {
		if c.ID == "" {
			return nil, fmt.Errorf("station %q has no id", c.Name)
		}
		if c.URL == "" {
			return nil, fmt.Errorf("station %s has no source url", c.ID)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate station id %s", c.ID)
		}
		r.stations = append(r.stations, c)
		r.byID[c.ID] = c
	}
	return r, nil
}

// Default returns the registry of the built-in Ob river gauges
func Default() *Registry {
	r, err := NewRegistry(DefaultStations())
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every station in registry order
func (r *Registry) All() []entities.StationConfig {
	// Return a copy to prevent external modification
	result := make([]entities.StationConfig, len(r.stations))
	copy(result, r.stations)
	return result
}

// Get looks up a station by id
func (r *Registry) Get(id string) (entities.StationConfig, error) {
	station, ok := r.byID[id]
	if !ok {
		return entities.StationConfig{}, fmt.Errorf("%w: %s", ErrStationNotFound, id)
	}
	return station, nil
}

// Len returns the number of registered stations
func (r *Registry) Len() int {
	return len(r.stations)
}

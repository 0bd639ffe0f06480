// Package entities contains the core domain objects for the river monitor
package entities

// Coords is a geographic position of a gauge
type Coords struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lon float64 `json:"lon" mapstructure:"lon"`
}

// StationConfig describes a gauge station and where its status page lives
type StationConfig struct {
	ID            string `json:"id" mapstructure:"id"`
	Name          string `json:"name" mapstructure:"name"`
	Coords        Coords `json:"coords" mapstructure:"coords"`
	Source        string `json:"source" mapstructure:"source"`
	URL           string `json:"-" mapstructure:"url"`
	CriticalLevel int    `json:"critical_level" mapstructure:"critical_level"`
	NormalLevel   int    `json:"normal_level" mapstructure:"normal_level"`
}

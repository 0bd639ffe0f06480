package entities

import "time"

// ReadingStatus is the outcome of a single fetch-and-extract attempt
type ReadingStatus string

const (
	StatusSuccess ReadingStatus = "success"
	StatusNoData  ReadingStatus = "no_data"
	StatusError   ReadingStatus = "error"
)

// StationReading is one fetch result for a station. It is not modified after construction.
type StationReading struct {
	StationID     string        `json:"station_id"`
	StationName   string        `json:"station_name"`
	WaterLevel    *int          `json:"water_level"`    // cm
	Temperature   *float64      `json:"temperature"`    // °C
	LastUpdate    *string       `json:"last_update"`    // dd.mm.yyyy as published by the source
	Source        string        `json:"source"`
	Coords        Coords        `json:"coords"`
	CriticalLevel int           `json:"critical_level"`
	NormalLevel   int           `json:"normal_level"`
	Status        ReadingStatus `json:"status"`
	Error         *string       `json:"error,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Level returns the classification of this reading against its own thresholds
func (r StationReading) Level() Classification {
	return Classify(r.WaterLevel, r.NormalLevel, r.CriticalLevel)
}

// HistoricalPoint is one day of a synthetic history series
type HistoricalPoint struct {
	Date        string  `json:"date"`
	WaterLevel  int     `json:"water_level"`
	Temperature float64 `json:"temperature"`
	Normal      int     `json:"normal"`
	Critical    int     `json:"critical"`
}

package entities

// Classification is the alert tier of a water level
type Classification string

const (
	LevelCritical Classification = "critical"
	LevelElevated Classification = "elevated"
	LevelNormal   Classification = "normal"
	LevelNoData   Classification = "no_data"
)

// ElevatedMargin is how far above the normal level a reading may go before it counts as elevated
const ElevatedMargin = 50

// Classify places a water level into an alert tier. Only the presence of a
// level is considered, never the status of the reading that carried it.
func Classify(level *int, normal, critical int) Classification {
	switch {
	case level == nil:
		return LevelNoData
	case *level > critical:
		return LevelCritical
	case *level > normal+ElevatedMargin:
		return LevelElevated
	default:
		return LevelNormal
	}
}

// StationSummary is the condensed per-station line of a Summary
type StationSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Level       *int           `json:"level"`
	Status      Classification `json:"status"`
	Temperature *float64       `json:"temperature"`
}

// Summary aggregates a set of readings into alert counts
type Summary struct {
	TotalStations    int              `json:"total_stations"`
	ActiveStations   int              `json:"active_stations"`
	CriticalStations int              `json:"critical_stations"`
	ElevatedStations int              `json:"elevated_stations"`
	NormalStations   int              `json:"normal_stations"`
	Stations         []StationSummary `json:"stations"`
}

// Summarize counts readings per alert tier, preserving the order of readings
func Summarize(readings []StationReading) Summary {
	s := Summary{
		TotalStations: len(readings),
		Stations:      make([]StationSummary, 0, len(readings)),
	}
	for _, r := range readings {
		if r.Status == StatusSuccess {
			s.ActiveStations++
		}
		level := r.Level()
		switch level {
		case LevelCritical:
			s.CriticalStations++
		case LevelElevated:
			s.ElevatedStations++
		case LevelNormal:
			s.NormalStations++
		}
		s.Stations = append(s.Stations, StationSummary{
			ID:          r.StationID,
			Name:        r.StationName,
			Level:       r.WaterLevel,
			Status:      level,
			Temperature: r.Temperature,
		})
	}
	return s
}

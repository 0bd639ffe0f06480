// Package history generates reproducible synthetic water level series.
//
// Real archives are not available from the gauge source, so each day's value
// is derived from the station thresholds, a yearly seasonal wave and a noise
// term taken from a fixed 64-bit hash of the station id and the date. The same
// station and date produce the same point in every process.
package history

import (
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
)

const (
	// MaxDays is the longest series that can be requested
	MaxDays = 365
	// DefaultDays is used when the caller does not ask for a length
	DefaultDays = 30

	// DateLayout formats HistoricalPoint.Date
	DateLayout = "2006-01-02"

	baseOffset        = 30
	seasonalAmplitude = 50
	noiseSpan         = 41 // noise is in [-20, 20]
	baseTemperature   = 15
)

// Generator produces series ending at the clock's current day
type Generator struct {
	clock clockwork.Clock
}

// NewGenerator creates a generator; a nil clock means real time
func NewGenerator(clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{clock: clock}
}

// ClampDays bounds a requested day count to [0, MaxDays]
func ClampDays(days int) int {
	switch {
	case days < 0:
		return 0
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

// Generate returns one point per day for the last days days up to and including today, oldest first
func (g *Generator) Generate(station entities.StationConfig, days int) []entities.HistoricalPoint {
	days = ClampDays(days)
	today := g.clock.Now()

	points := make([]entities.HistoricalPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		points = append(points, Point(station, today.AddDate(0, 0, -i)))
	}
	return points
}

// Point computes the synthetic value of one station on one calendar day
func Point(station entities.StationConfig, day time.Time) entities.HistoricalPoint {
	date := day.Format(DateLayout)

	base := float64(station.NormalLevel + baseOffset)
	seasonal := math.Sin(float64(day.YearDay())/365*2*math.Pi) * seasonalAmplitude
	noise := float64(int64(stableHash(station.ID+date)%noiseSpan) - noiseSpan/2)
	level := int(math.Max(0, math.Round(base+seasonal+noise)))

	temp := baseTemperature + float64(stableHash("temp"+station.ID+date)%100)/10
	temp = math.Round(temp*10) / 10

	return entities.HistoricalPoint{
		Date:        date,
		WaterLevel:  level,
		Temperature: temp,
		Normal:      station.NormalLevel,
		Critical:    station.CriticalLevel,
	}
}

// stableHash is xxHash64 over the UTF-8 bytes of key
func stableHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Period renders a day count the way API responses label it
func Period(days int) string {
	return strconv.Itoa(days) + " days"
}

package stations

import "github.com/abelzeko/ob-river-monitor/internal/entities"

const allRiversBaseURL = "https://allrivers.info/gauge/"

// DefaultStations returns the hardcoded gauge configuration
func DefaultStations() []entities.StationConfig {
	return []entities.StationConfig{
		{
			ID:            "novosibirsk",
			Name:          "Новосибирск",
			Coords:        entities.Coords{Lat: 54.8527, Lon: 82.9899},
			Source:        "ФГБУ Западно-Сибирское УГМС",
			URL:           allRiversBaseURL + "ob-novosibirsk",
			CriticalLevel: 450,
			NormalLevel:   100,
		},
		{
			ID:            "barnaul",
			Name:          "Барнаул",
			Coords:        entities.Coords{Lat: 53.3606, Lon: 83.7636},
			Source:        "ФГБУ Западно-Сибирское УГМС",
			URL:           allRiversBaseURL + "ob-barnaul",
			CriticalLevel: 615,
			NormalLevel:   200,
		},
		{
			ID:            "nizhnevartovsk",
			Name:          "Нижневартовск",
			Coords:        entities.Coords{Lat: 60.9200, Lon: 76.6200},
			Source:        "Центр регистра и кадастра",
			URL:           allRiversBaseURL + "ob-nizhnevartovsk",
			CriticalLevel: 500,
			NormalLevel:   150,
		},
		{
			ID:            "muzhi",
			Name:          "Мужи",
			Coords:        entities.Coords{Lat: 63.5565, Lon: 66.3619},
			Source:        "Центр регистра и кадастра",
			URL:           allRiversBaseURL + "ob-muzhi",
			CriticalLevel: 400,
			NormalLevel:   80,
		},
	}
}

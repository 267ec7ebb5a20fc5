package extract

import (
	"fmt"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// The upstream API serves two row shapes: current.json (one reading per
// city) and history.json (per-day arrays of hourly readings). Payload is the
// tagged variant wrapping both; Observations is the adapter that normalizes
// either shape into the same internal observation record, so the
// transformation core never sees which endpoint supplied a row.

// PayloadKind tags which upstream endpoint produced a Payload.
type PayloadKind string

const (
	KindCurrent PayloadKind = "current"
	KindHistory PayloadKind = "history"
)

// Payload is a tagged variant of the two upstream response shapes.
// Exactly one of Current/History is set, matching Kind.
type Payload struct {
	Kind    PayloadKind
	Current *CurrentResponse
	History *HistoryResponse
}

// LocationPayload mirrors the `location` object shared by both shapes.
// Fields like lat/lon/tz_id are present upstream but not stored.
type LocationPayload struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// ConditionPayload mirrors the nested `condition` object.
type ConditionPayload struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

// readingPayload holds the measurement fields common to the `current` object
// and each `hour` entry.
type readingPayload struct {
	TempC      float64          `json:"temp_c"`
	Condition  ConditionPayload `json:"condition"`
	WindKph    float64          `json:"wind_kph"`
	WindDegree int              `json:"wind_degree"`
	WindDir    string           `json:"wind_dir"`
	PressureMb float64          `json:"pressure_mb"`
	PrecipMm   float64          `json:"precip_mm"`
	Humidity   int              `json:"humidity"`
	Cloud      int              `json:"cloud"`
	VisKm      float64          `json:"vis_km"`
	UV         float64          `json:"uv"`
	GustKph    float64          `json:"gust_kph"`
}

// CurrentResponse mirrors current.json.
type CurrentResponse struct {
	Location LocationPayload `json:"location"`
	Current  struct {
		LastUpdated string `json:"last_updated"`
		readingPayload
	} `json:"current"`
}

// HistoryResponse mirrors history.json.
type HistoryResponse struct {
	Location LocationPayload `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Hour []struct {
				Time string `json:"time"`
				readingPayload
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Observations normalizes the payload into internal observation records.
func (p Payload) Observations() ([]weather.Observation, error) {
	switch p.Kind {
	case KindCurrent:
		if p.Current == nil {
			return nil, fmt.Errorf("current payload is nil")
		}
		obs := normalize(p.Current.Location, p.Current.Current.LastUpdated, p.Current.Current.readingPayload)
		return []weather.Observation{obs}, nil
	case KindHistory:
		if p.History == nil {
			return nil, fmt.Errorf("history payload is nil")
		}
		var out []weather.Observation
		for _, day := range p.History.Forecast.ForecastDay {
			for _, hour := range day.Hour {
				out = append(out, normalize(p.History.Location, hour.Time, hour.readingPayload))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", p.Kind)
	}
}

func normalize(loc LocationPayload, observedAt string, r readingPayload) weather.Observation {
	return weather.Observation{
		Location: weather.Location{
			Name:    loc.Name,
			Region:  loc.Region,
			Country: loc.Country,
		},
		Condition: weather.Condition{
			Code: r.Condition.Code,
			Text: r.Condition.Text,
		},
		ObservedAt: observedAt,
		Measures: weather.Measurements{
			TempC:      r.TempC,
			WindKph:    r.WindKph,
			WindDegree: r.WindDegree,
			WindDir:    r.WindDir,
			PressureMb: r.PressureMb,
			PrecipMm:   r.PrecipMm,
			Humidity:   r.Humidity,
			Cloud:      r.Cloud,
			VisKm:      r.VisKm,
			UV:         r.UV,
			GustKph:    r.GustKph,
		},
	}
}

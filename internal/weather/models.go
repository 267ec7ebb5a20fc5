package weather

// TimeLayout is the minute-granularity timestamp layout used by the upstream
// API, the staging store, and the warehouse time dimension.
const TimeLayout = "2006-01-02 15:04"

// Location represents a logical place for which we track weather.
// (Name, Region, Country) is the natural key; it is immutable once created.
type Location struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Name + ":" + l.Region + ":" + l.Country
}

// Condition is a weather condition as reported by the upstream API.
// The numeric code is the natural key; the text is descriptive only.
type Condition struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

// Measurements holds the numeric and categorical weather fields of one
// observation. Values are passed through from extraction unchanged.
type Measurements struct {
	TempC      float64 `json:"temp_c"`
	WindKph    float64 `json:"wind_kph"`
	WindDegree int     `json:"wind_degree"`
	WindDir    string  `json:"wind_dir"`
	PressureMb float64 `json:"pressure_mb"`
	PrecipMm   float64 `json:"precip_mm"`
	Humidity   int     `json:"humidity"`
	Cloud      int     `json:"cloud"`
	VisKm      float64 `json:"vis_km"`
	UV         float64 `json:"uv"`
	GustKph    float64 `json:"gust_kph"`
}

// Observation is the normalized record every upstream payload shape is
// adapted into before it reaches the staging store. ObservedAt keeps the raw
// timestamp string from the API; parsing happens downstream so that a
// malformed value surfaces in the run's rejected-row count instead of
// vanishing at ingestion.
type Observation struct {
	Location   Location     `json:"location"`
	Condition  Condition    `json:"condition"`
	ObservedAt string       `json:"observed_at"`
	Measures   Measurements `json:"measures"`
}

package nasapower

import "time"

// ParameterAllSkyIrradiance is all-sky surface shortwave downward irradiance, kWh/m²/day.
const ParameterAllSkyIrradiance = "ALLSKY_SFC_SW_DWN"

// DefaultFillValue marks missing days when the response header omits fill_value.
const DefaultFillValue = -999.0

// dateLayout is the compact date format POWER uses for both query and response keys.
const dateLayout = "20060102"

// DailyValue is one raw reading as delivered by the API, sentinel values included.
type DailyValue struct {
	Date  time.Time
	Value float64
}

// DailyResponse is the decoded daily series for one grid cell.
type DailyResponse struct {
	Parameter string
	FillValue float64
	Units     string

	// Grid cell the API resolved the request to; nearby points share a cell.
	GridLongitude float64
	GridLatitude  float64
	Values        []DailyValue // sorted by date
}

// dailyPointResponse mirrors the GeoJSON body of /api/temporal/daily/point.
type dailyPointResponse struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
	Header struct {
		FillValue *float64 `json:"fill_value"`
		Start     string   `json:"start"`
		End       string   `json:"end"`
	} `json:"header"`
	Parameters map[string]struct {
		Units    string `json:"units"`
		LongName string `json:"longname"`
	} `json:"parameters"`
	Messages []string `json:"messages"`
}

// errorResponse covers the shapes POWER uses for rejected requests.
type errorResponse struct {
	Messages []string `json:"messages"`
	Message  string   `json:"message"`
	Detail   any      `json:"detail"`
}

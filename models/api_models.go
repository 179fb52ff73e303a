// backend/models/api_models.go
package models

// Provenance tags for ServiceResult.Source: which tier answered the request.
const (
	SourceCache            = "cache"
	SourceDatabase         = "database"
	SourceAPI              = "api"
	SourceDatabaseFallback = "database_fallback"
)

// ServiceResult is the envelope every read operation returns to the HTTP
// layer: the payload plus the tier that produced it.
type ServiceResult struct {
	Success bool   `json:"success"`
	Source  string `json:"source"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Trends summarizes direction of movement over a history window: the most
// recent six points against the six before them.
type Trends struct {
	RecentAverage    float64 `json:"recentAverage"`
	OlderAverage     float64 `json:"olderAverage"`
	PercentageChange float64 `json:"percentageChange"`
	Trend            string  `json:"trend"`
}

// HistoryResponse is the assembled getHistory payload.
type HistoryResponse struct {
	DistrictCode string      `json:"district_code"`
	Period       PeriodRange `json:"period"`
	DataPoints   int         `json:"dataPoints"`
	Data         []Record    `json:"data"`
	Trends       *Trends     `json:"trends"`
}

type PeriodRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// StateAverage holds the parent-region aggregate over the two primary
// indicators, averaged across the most recent sibling records.
type StateAverage struct {
	AvgHouseholds  float64 `json:"avgHouseholds"`
	AvgExpenditure float64 `json:"avgExpenditure"`
}

// Performance compares a district's recent average against its state average.
type Performance struct {
	DistrictAverage  float64 `json:"districtAverage"`
	StateAverage     float64 `json:"stateAverage"`
	PerformanceIndex float64 `json:"performanceIndex"`
	Status           string  `json:"status"`
}

// Comparison is the assembled getComparison payload.
type Comparison struct {
	District struct {
		Code       string   `json:"code"`
		Name       string   `json:"name"`
		RecentData []Record `json:"recentData"`
	} `json:"district"`
	StateAverage StateAverage `json:"stateAverage"`
	Performance  *Performance `json:"performance"`
}

// UploadError reports one failed record within a bulk ingestion.
type UploadError struct {
	Record string `json:"record"`
	Error  string `json:"error"`
}

// UploadResults is the per-record outcome of a bulk ingestion; partial
// success is expected and reported, not rolled back.
type UploadResults struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Errors  []UploadError `json:"errors"`
}

// ActiveDistrict is an aggregation row: a district ranked by update recency.
type ActiveDistrict struct {
	DistrictCode string `json:"district_code"`
	DistrictName string `json:"district_name"`
	StateName    string `json:"state_name,omitempty"`
	RecordCount  int    `json:"count"`
	LastUpdated  string `json:"lastUpdated"`
}

// Location is a resolved request origin used to preselect a state on the
// dashboard. Absence is never an error.
type Location struct {
	State     string `json:"state"`
	StateCode string `json:"stateCode"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

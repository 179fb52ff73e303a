// backend/govapi/parser.go
package govapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gramdarpan/mgnrega/backend/models"
)

// requiredFields must be present and non-empty on every upstream record; a
// record missing any of them cannot be keyed and is rejected outright.
var requiredFields = []string{
	"district_code", "district_name", "state_code", "state_name", "fin_year", "month",
}

// Normalize converts one raw upstream record into a models.Record. The
// upstream is loose about types (numbers arrive as strings or as numbers
// depending on the dataset revision), so every value is stringified before
// mapping. A record missing an identity field is a ValidationError.
func Normalize(raw map[string]any) (*models.Record, error) {
	flat := make(map[string]string, len(raw))
	for k, v := range raw {
		flat[k] = stringify(v)
	}

	for _, f := range requiredFields {
		if strings.TrimSpace(flat[f]) == "" {
			return nil, &models.ValidationError{Message: fmt.Sprintf("upstream record missing required field %q", f)}
		}
	}

	// Round-trip through JSON so the Record's upstream-matching tags do the
	// field mapping.
	buf, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode upstream record: %w", err)
	}
	var rec models.Record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("failed to map upstream record: %w", err)
	}

	rec.DistrictCode = strings.TrimSpace(rec.DistrictCode)
	rec.StateCode = strings.TrimSpace(rec.StateCode)
	rec.FinYear = strings.TrimSpace(rec.FinYear)
	rec.Month = strings.TrimSpace(rec.Month)
	rec.FetchedFrom = "api"
	return &rec, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ToNumber parses an indicator value for computation. Empty values, "NA"
// markers and comma grouping all occur in live data; anything unparseable
// counts as zero rather than poisoning an aggregate.
func ToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch strings.ToUpper(s) {
	case "NA", "N/A", "NIL", "-":
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
		return 0
	}
	return f
}

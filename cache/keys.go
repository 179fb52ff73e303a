// backend/cache/keys.go
package cache

import "fmt"

// Cache key builders. One constructor per access pattern so every caller
// derives keys the same way. Parts are joined with ":", which none of the
// validated inputs (numeric codes, "YYYY-YYYY" years, 3-letter months) may
// contain; keys with a single free-form trailing part (the IP in LocationKey)
// are unambiguous because the part is last.

func DistrictDataKey(districtCode, finYear, month string) string {
	return fmt.Sprintf("district:%s:%s:%s", districtCode, finYear, month)
}

func HistoryKey(districtCode, startDate, endDate string) string {
	return fmt.Sprintf("history:%s:%s:%s", districtCode, startDate, endDate)
}

func ComparisonKey(districtCode string) string {
	return fmt.Sprintf("comparison:%s", districtCode)
}

func StateDistrictsKey(stateCode string) string {
	return fmt.Sprintf("state:%s:districts", stateCode)
}

func LocationKey(ip string) string {
	return fmt.Sprintf("location:%s", ip)
}

func PopularDistrictsKey() string {
	return "popular:districts"
}

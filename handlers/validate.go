// backend/handlers/validate.go
package handlers

import (
	"fmt"
	"regexp"

	"github.com/gramdarpan/mgnrega/backend/services"
)

// Identifier shapes accepted at the HTTP boundary. Everything that ends up
// in a cache key is validated here, so key parts can never carry the key
// delimiter.
var (
	districtCodeRegex = regexp.MustCompile(`^\d{3,4}$`)
	stateCodeRegex    = regexp.MustCompile(`^\d{1,2}$`)
	finYearRegex      = regexp.MustCompile(`^\d{4}-\d{4}$`)
	calendarRegex     = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

func validateDistrictCode(code string) error {
	if !districtCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid district code %q (expected 3-4 digits)", code)
	}
	return nil
}

func validateStateCode(code string) error {
	if !stateCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid state code %q (expected 1-2 digits)", code)
	}
	return nil
}

func validateFinYear(finYear string) error {
	if !finYearRegex.MatchString(finYear) {
		return fmt.Errorf("invalid financial year %q (expected YYYY-YYYY)", finYear)
	}
	return nil
}

func validateMonth(month string) error {
	if _, ok := services.MonthOrdinal(month); !ok {
		return fmt.Errorf("invalid month %q (expected Jan..Dec)", month)
	}
	return nil
}

func validateCalendarMonth(s string) error {
	if !calendarRegex.MatchString(s) {
		return fmt.Errorf("invalid period %q (expected YYYY-MM)", s)
	}
	return nil
}

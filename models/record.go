// backend/models/record.go
package models

import "time"

// Record is one normalized snapshot of all MGNREGA indicators for a
// (district_code, fin_year, month) pair. Indicator values are kept as the
// strings the government API returned so the frontend can display them
// exactly; use govapi.ToNumber for computation.
//
// Field tags match the government API response keys 1:1, including the
// upstream's own spelling of "gererated".
type Record struct {
	ID int64 `json:"-" csv:"-"`

	DistrictCode string `json:"district_code" csv:"district_code"`
	DistrictName string `json:"district_name" csv:"district_name"`
	StateCode    string `json:"state_code" csv:"state_code"`
	StateName    string `json:"state_name" csv:"state_name"`
	FinYear      string `json:"fin_year" csv:"fin_year"`
	Month        string `json:"month" csv:"month"`

	ApprovedLabourBudget         string `json:"Approved_Labour_Budget" csv:"Approved_Labour_Budget"`
	AverageWageRatePerDay        string `json:"Average_Wage_rate_per_day_per_person" csv:"Average_Wage_rate_per_day_per_person"`
	AverageDaysPerHousehold      string `json:"Average_days_of_employment_provided_per_Household" csv:"Average_days_of_employment_provided_per_Household"`
	DifferentlyAbledWorked       string `json:"Differently_abled_persons_worked" csv:"Differently_abled_persons_worked"`
	MaterialAndSkilledWages      string `json:"Material_and_skilled_Wages" csv:"Material_and_skilled_Wages"`
	CompletedWorks               string `json:"Number_of_Completed_Works" csv:"Number_of_Completed_Works"`
	GPsWithNilExp                string `json:"Number_of_GPs_with_NIL_exp" csv:"Number_of_GPs_with_NIL_exp"`
	OngoingWorks                 string `json:"Number_of_Ongoing_Works" csv:"Number_of_Ongoing_Works"`
	PersondaysCentralLiability   string `json:"Persondays_of_Central_Liability_so_far" csv:"Persondays_of_Central_Liability_so_far"`
	SCPersondays                 string `json:"SC_persondays" csv:"SC_persondays"`
	SCWorkersAgainstActive       string `json:"SC_workers_against_active_workers" csv:"SC_workers_against_active_workers"`
	STPersondays                 string `json:"ST_persondays" csv:"ST_persondays"`
	STWorkersAgainstActive       string `json:"ST_workers_against_active_workers" csv:"ST_workers_against_active_workers"`
	TotalAdmExpenditure          string `json:"Total_Adm_Expenditure" csv:"Total_Adm_Expenditure"`
	TotalExp                     string `json:"Total_Exp" csv:"Total_Exp"`
	TotalHouseholdsWorked        string `json:"Total_Households_Worked" csv:"Total_Households_Worked"`
	TotalIndividualsWorked       string `json:"Total_Individuals_Worked" csv:"Total_Individuals_Worked"`
	TotalActiveJobCards          string `json:"Total_No_of_Active_Job_Cards" csv:"Total_No_of_Active_Job_Cards"`
	TotalActiveWorkers           string `json:"Total_No_of_Active_Workers" csv:"Total_No_of_Active_Workers"`
	HouseholdsCompleted100Days   string `json:"Total_No_of_HHs_completed_100_Days_of_Wage_Employment" csv:"Total_No_of_HHs_completed_100_Days_of_Wage_Employment"`
	TotalJobCardsIssued          string `json:"Total_No_of_JobCards_issued" csv:"Total_No_of_JobCards_issued"`
	TotalWorkers                 string `json:"Total_No_of_Workers" csv:"Total_No_of_Workers"`
	TotalWorksTakenup            string `json:"Total_No_of_Works_Takenup" csv:"Total_No_of_Works_Takenup"`
	Wages                        string `json:"Wages" csv:"Wages"`
	WomenPersondays              string `json:"Women_Persondays" csv:"Women_Persondays"`
	PercentCategoryBWorks        string `json:"percent_of_Category_B_Works" csv:"percent_of_Category_B_Works"`
	PercentExpAgricultureAllied  string `json:"percent_of_Expenditure_on_Agriculture_Allied_Works" csv:"percent_of_Expenditure_on_Agriculture_Allied_Works"`
	PercentNRMExpenditure        string `json:"percent_of_NRM_Expenditure" csv:"percent_of_NRM_Expenditure"`
	PercentPaymentsWithin15Days  string `json:"percentage_payments_gererated_within_15_days" csv:"percentage_payments_gererated_within_15_days"`
	Remarks                      string `json:"Remarks" csv:"Remarks"`

	// FetchedFrom records provenance: api, manual or etl.
	FetchedFrom string `json:"fetched_from" csv:"-"`

	// PeriodIndex is the derived sortable form of (fin_year, month):
	// calendarYear*12 + monthOrdinal. See services.PeriodIndex.
	PeriodIndex int `json:"-" csv:"-"`

	CreatedAt time.Time `json:"created_at" csv:"-"`
	UpdatedAt time.Time `json:"updated_at" csv:"-"`
}

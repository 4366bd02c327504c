// Package validate runs schema and business-rule checks over the raw
// churn table and produces a structured report. Failed checks are data
// for the caller, never errors.
package validate

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
)

// requiredColumns gates the whole suite: if any is absent no other check
// runs.
var requiredColumns = []string{
	"customerID", "gender", "Partner", "Dependents",
	"PhoneService", "InternetService", "Contract",
	"tenure", "MonthlyCharges", "TotalCharges",
}

// CheckMissingRequired is the single identifier reported when required
// columns are absent.
const CheckMissingRequired = "missing_required_columns"

// totalChecks is the fixed size of the suite once the required-columns
// gate passes.
const totalChecks = 13

// mostlyThreshold is the minimum compliant fraction for the
// charges-consistency check.
const mostlyThreshold = 0.95

// Report is the outcome of a validation run.
type Report struct {
	Success        bool     `json:"success"`
	MissingColumns []string `json:"missing_columns"`
	FailedChecks   []string `json:"failed_checks"`
	TotalChecks    int      `json:"total_checks"`
	PassedChecks   int      `json:"passed_checks"`
	FailedCount    int      `json:"failed_count"`
	Details        string   `json:"details"`
}

// Validator checks a table against the churn dataset's schema and
// business rules.
type Validator struct {
	logger *slog.Logger
}

// New returns a validator. A nil logger discards output.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{logger: logger}
}

// check is one named rule. Each violated rule contributes exactly one
// identifier regardless of how many rows triggered it.
type check struct {
	id string
	ok func(t *dataset.Table) bool
}

func suite() []check {
	return []check{
		{"customerID_not_null", notNull("customerID")},
		{"gender_in_set", inSet("gender", "Male", "Female")},
		{"Partner_in_set", inSet("Partner", "Yes", "No")},
		{"Dependents_in_set", inSet("Dependents", "Yes", "No")},
		{"PhoneService_in_set", inSet("PhoneService", "Yes", "No")},
		{"Contract_in_set", inSet("Contract", "Month-to-month", "One year", "Two year")},
		{"InternetService_in_set", inSet("InternetService", "DSL", "Fiber optic", "No")},
		{"tenure_between_0_120", numericBetween("tenure", 0, 120)},
		{"MonthlyCharges_between_0_200", numericBetween("MonthlyCharges", 0, 200)},
		{"TotalCharges_not_negative", numericMin("TotalCharges", 0)},
		{"tenure_not_null", notNull("tenure")},
		{"MonthlyCharges_not_null", notNull("MonthlyCharges")},
		{"TotalCharges_gte_MonthlyCharges", chargesConsistent},
	}
}

// CheckIDs returns the identifiers of the full suite in execution order.
func CheckIDs() []string {
	cs := suite()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

// Check runs the suite and returns a report. When any required column is
// missing it short-circuits with a single failure identifier.
func (v *Validator) Check(t *dataset.Table) Report {
	v.logger.Info("starting data validation", "rows", t.NumRows(), "columns", t.NumCols())

	var missing []string
	for _, name := range requiredColumns {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		v.logger.Error("missing required columns", "columns", missing)
		return Report{
			Success:        false,
			MissingColumns: missing,
			FailedChecks:   []string{CheckMissingRequired},
			FailedCount:    1,
			Details:        "schema validation failed: required columns missing",
		}
	}
	v.logger.Debug("all required columns present")

	var failed []string
	for _, c := range suite() {
		if !c.ok(t) {
			failed = append(failed, c.id)
		}
	}

	report := Report{
		Success:        len(failed) == 0,
		MissingColumns: []string{},
		FailedChecks:   failed,
		TotalChecks:    totalChecks,
		PassedChecks:   totalChecks - len(failed),
		FailedCount:    len(failed),
	}
	if report.Success {
		report.FailedChecks = []string{}
		report.Details = "validation passed"
		v.logger.Info("validation passed", "passed", report.PassedChecks, "total", report.TotalChecks)
	} else {
		report.Details = "validation failed"
		v.logger.Error("validation failed", "failed", report.FailedCount, "checks", failed)
	}
	return report
}

// notNull passes when the column has no null cells. A blank or
// whitespace-only string cell counts as null.
func notNull(name string) func(*dataset.Table) bool {
	return func(t *dataset.Table) bool {
		col, _ := t.Column(name)
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				return false
			}
			if col.Type() == dataset.String {
				if s, _ := col.StringAt(i); strings.TrimSpace(s) == "" {
					return false
				}
			}
		}
		return true
	}
}

// inSet passes when every non-null cell takes one of the allowed values.
func inSet(name string, allowed ...string) func(*dataset.Table) bool {
	set := map[string]struct{}{}
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(t *dataset.Table) bool {
		col, _ := t.Column(name)
		if col.Type() != dataset.String {
			return false
		}
		for i := 0; i < col.Len(); i++ {
			v, ok := col.StringAt(i)
			if !ok {
				continue
			}
			if _, member := set[v]; !member {
				return false
			}
		}
		return true
	}
}

func numericBetween(name string, lo, hi float64) func(*dataset.Table) bool {
	return func(t *dataset.Table) bool {
		col, _ := t.Column(name)
		for i := 0; i < col.Len(); i++ {
			v, ok := coercedFloat(col, i)
			if !ok {
				continue
			}
			if v < lo || v > hi {
				return false
			}
		}
		return true
	}
}

func numericMin(name string, lo float64) func(*dataset.Table) bool {
	return func(t *dataset.Table) bool {
		col, _ := t.Column(name)
		for i := 0; i < col.Len(); i++ {
			v, ok := coercedFloat(col, i)
			if !ok {
				continue
			}
			if v < lo {
				return false
			}
		}
		return true
	}
}

// chargesConsistent passes when at least 95% of the rows with both
// charges present satisfy TotalCharges >= MonthlyCharges. The rule is
// row-aggregate: one identifier for the whole check.
func chargesConsistent(t *dataset.Table) bool {
	total, _ := t.Column("TotalCharges")
	monthly, _ := t.Column("MonthlyCharges")

	pairs, satisfied := 0, 0
	for i := 0; i < total.Len(); i++ {
		tc, ok := coercedFloat(total, i)
		if !ok {
			continue
		}
		mc, ok := coercedFloat(monthly, i)
		if !ok {
			continue
		}
		pairs++
		if tc >= mc {
			satisfied++
		}
	}
	if pairs == 0 {
		return true
	}
	return float64(satisfied)/float64(pairs) >= mostlyThreshold
}

// coercedFloat reads a cell as a number regardless of the declared column
// type. String cells that do not parse, and blanks, count as missing.
func coercedFloat(col *dataset.Series, i int) (float64, bool) {
	if col.IsNull(i) {
		return 0, false
	}
	switch col.Type() {
	case dataset.Float, dataset.Int:
		return col.FloatAt(i)
	case dataset.String:
		s, _ := col.StringAt(i)
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

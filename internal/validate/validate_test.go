package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
	"github.com/leapstack-labs/churnpipe/internal/testutil"
)

// validTable builds an n-row table that passes every check.
func validTable(t *testing.T, n int) *dataset.Table {
	t.Helper()

	genders := []string{"Male", "Female"}
	yesNo := []string{"Yes", "No"}
	internet := []string{"DSL", "Fiber optic", "No"}
	contracts := []string{"Month-to-month", "One year", "Two year"}

	ids := make([]string, n)
	gender := make([]string, n)
	partner := make([]string, n)
	dependents := make([]string, n)
	phone := make([]string, n)
	inet := make([]string, n)
	contract := make([]string, n)
	tenure := make([]int64, n)
	monthly := make([]float64, n)
	total := make([]float64, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("%04d-CUST", i)
		gender[i] = genders[i%2]
		partner[i] = yesNo[i%2]
		dependents[i] = yesNo[(i+1)%2]
		phone[i] = yesNo[i%2]
		inet[i] = internet[i%3]
		contract[i] = contracts[i%3]
		tenure[i] = int64(i%72 + 1)
		monthly[i] = 50.0
		total[i] = float64(tenure[i]) * monthly[i]
	}

	tbl := dataset.New()
	for _, s := range []*dataset.Series{
		dataset.NewStringSeries("customerID", ids, nil),
		dataset.NewStringSeries("gender", gender, nil),
		dataset.NewStringSeries("Partner", partner, nil),
		dataset.NewStringSeries("Dependents", dependents, nil),
		dataset.NewStringSeries("PhoneService", phone, nil),
		dataset.NewStringSeries("InternetService", inet, nil),
		dataset.NewStringSeries("Contract", contract, nil),
		dataset.NewIntSeries("tenure", tenure, nil),
		dataset.NewFloatSeries("MonthlyCharges", monthly, nil),
		dataset.NewFloatSeries("TotalCharges", total, nil),
	} {
		require.NoError(t, tbl.AddColumn(s))
	}
	return tbl
}

func TestCheck_CleanTablePasses(t *testing.T) {
	v := New(testutil.NewLogger(t))
	report := v.Check(validTable(t, 20))

	assert.True(t, report.Success)
	assert.Equal(t, 13, report.TotalChecks)
	assert.Equal(t, 13, report.PassedChecks)
	assert.Zero(t, report.FailedCount)
	assert.Empty(t, report.FailedChecks)
	assert.Empty(t, report.MissingColumns)
	assert.Equal(t, "validation passed", report.Details)
}

func TestCheck_MissingColumnsShortCircuit(t *testing.T) {
	tbl := validTable(t, 5)
	tbl.Drop("customerID", "Contract")

	report := New(testutil.NewLogger(t)).Check(tbl)

	assert.False(t, report.Success)
	assert.Equal(t, []string{"customerID", "Contract"}, report.MissingColumns)
	assert.Equal(t, []string{CheckMissingRequired}, report.FailedChecks)
	assert.Equal(t, 1, report.FailedCount)
	// No suite checks run behind the gate.
	assert.Zero(t, report.TotalChecks)
	assert.Zero(t, report.PassedChecks)
}

func TestCheck_TenureRange(t *testing.T) {
	tbl := validTable(t, 5)
	col, _ := tbl.Column("tenure")
	col.SetInt(2, 121)

	report := New(nil).Check(tbl)

	assert.False(t, report.Success)
	assert.Equal(t, []string{"tenure_between_0_120"}, report.FailedChecks)
	assert.Equal(t, 12, report.PassedChecks)
}

func TestCheck_GenderOutsideSet(t *testing.T) {
	tbl := validTable(t, 5)
	require.NoError(t, tbl.Replace(dataset.NewStringSeries("gender",
		[]string{"Male", "Female", "Unknown", "Male", "Female"}, nil)))

	report := New(nil).Check(tbl)

	assert.False(t, report.Success)
	assert.Equal(t, []string{"gender_in_set"}, report.FailedChecks)
}

func TestCheck_BlankCustomerIDIsNull(t *testing.T) {
	tbl := validTable(t, 4)
	require.NoError(t, tbl.Replace(dataset.NewStringSeries("customerID",
		[]string{"0001-CUST", "   ", "0003-CUST", "0004-CUST"}, nil)))

	report := New(nil).Check(tbl)

	assert.False(t, report.Success)
	assert.Contains(t, report.FailedChecks, "customerID_not_null")
}

func TestCheck_NegativeCharges(t *testing.T) {
	tbl := validTable(t, 5)
	col, _ := tbl.Column("TotalCharges")
	col.SetFloat(0, -1)

	report := New(nil).Check(tbl)

	assert.False(t, report.Success)
	assert.Contains(t, report.FailedChecks, "TotalCharges_not_negative")
}

func TestCheck_ChargesConsistencyThreshold(t *testing.T) {
	// The pair rule tolerates up to 5% of rows with TotalCharges below
	// MonthlyCharges.
	tbl := validTable(t, 100)
	col, _ := tbl.Column("TotalCharges")
	for i := 0; i < 5; i++ {
		col.SetFloat(i, 10)
	}
	report := New(nil).Check(tbl)
	assert.True(t, report.Success, "95 of 100 compliant pairs should pass")

	col.SetFloat(5, 10)
	report = New(nil).Check(tbl)
	assert.False(t, report.Success)
	assert.Equal(t, []string{"TotalCharges_gte_MonthlyCharges"}, report.FailedChecks)
}

func TestCheck_UnparseableChargesSkipPairRule(t *testing.T) {
	// Raw CSV data can carry TotalCharges as strings with blank cells.
	// Those rows are missing for the numeric checks, not violations.
	tbl := validTable(t, 4)
	require.NoError(t, tbl.Replace(dataset.NewStringSeries("TotalCharges",
		[]string{"100.5", " ", "60", "75.2"}, nil)))

	report := New(testutil.NewLogger(t)).Check(tbl)
	assert.True(t, report.Success)
}

func TestCheck_NullsPassInSetChecks(t *testing.T) {
	tbl := validTable(t, 4)
	require.NoError(t, tbl.Replace(dataset.NewStringSeries("Partner",
		[]string{"Yes", "", "No", "Yes"}, []bool{true, false, true, true})))

	report := New(nil).Check(tbl)
	assert.True(t, report.Success)
}

func TestCheckIDs(t *testing.T) {
	ids := CheckIDs()
	require.Len(t, ids, 13)
	assert.Equal(t, "customerID_not_null", ids[0])
	assert.Equal(t, "TotalCharges_gte_MonthlyCharges", ids[12])
}

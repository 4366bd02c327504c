package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/churnpipe/internal/dataset"
	"github.com/leapstack-labs/churnpipe/internal/testutil"
)

func intValues(t *testing.T, tbl *dataset.Table, name string) []int64 {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	require.Equal(t, dataset.Int, col.Type(), "column %s", name)
	out := make([]int64, col.Len())
	for i := range out {
		v, ok := col.IntAt(i)
		require.True(t, ok, "column %s row %d is null", name, i)
		out[i] = v
	}
	return out
}

func TestEncode_YesNoMapping(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("Partner", []string{"No", "Yes", "Yes", "No"}, nil)))

	require.NoError(t, New("Churn", testutil.NewLogger(t)).Encode(tbl))
	assert.Equal(t, []int64{0, 1, 1, 0}, intValues(t, tbl, "Partner"))
}

func TestEncode_GenderMapping(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("gender", []string{"Male", "Female", "Male"}, nil)))

	require.NoError(t, New("Churn", testutil.NewLogger(t)).Encode(tbl))
	assert.Equal(t, []int64{1, 0, 1}, intValues(t, tbl, "gender"))
}

func TestEncode_GenericPairIsLexicographic(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("plan", []string{"Z", "A", "Z"}, nil)))

	require.NoError(t, New("Churn", testutil.NewLogger(t)).Encode(tbl))
	assert.Equal(t, []int64{1, 0, 1}, intValues(t, tbl, "plan"))
}

func TestEncode_MappingIgnoresRowOrderAndFrequency(t *testing.T) {
	a := dataset.New()
	require.NoError(t, a.AddColumn(dataset.NewStringSeries("Partner", []string{"Yes", "Yes", "Yes", "No"}, nil)))
	b := dataset.New()
	require.NoError(t, b.AddColumn(dataset.NewStringSeries("Partner", []string{"No", "Yes", "Yes", "Yes"}, nil)))

	require.NoError(t, New("Churn", nil).Encode(a))
	require.NoError(t, New("Churn", nil).Encode(b))

	assert.Equal(t, []int64{1, 1, 1, 0}, intValues(t, a, "Partner"))
	assert.Equal(t, []int64{0, 1, 1, 1}, intValues(t, b, "Partner"))
}

func TestEncode_BinaryNullsGetZeroAtCleanup(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("Partner", []string{"Yes", "", "No"}, []bool{true, false, true})))

	require.NoError(t, New("Churn", testutil.NewLogger(t)).Encode(tbl))
	assert.Equal(t, []int64{1, 0, 0}, intValues(t, tbl, "Partner"))
}

func TestEncode_OneHotDropsReference(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("Contract",
		[]string{"Month-to-month", "One year", "Two year", "One year"}, nil)))

	require.NoError(t, New("Churn", testutil.NewLogger(t)).Encode(tbl))

	// 3 categories -> 2 indicators; the sorted-first category is the
	// dropped reference.
	assert.False(t, tbl.HasColumn("Contract"))
	assert.False(t, tbl.HasColumn("Contract_Month-to-month"))
	assert.Equal(t, []int64{0, 1, 0, 1}, intValues(t, tbl, "Contract_One year"))
	assert.Equal(t, []int64{0, 0, 1, 0}, intValues(t, tbl, "Contract_Two year"))
}

func TestEncode_OneHotColumnCount(t *testing.T) {
	vals := []string{"a", "b", "c", "d", "a", "b"}
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("cat", vals, nil)))
	require.NoError(t, tbl.AddColumn(dataset.NewIntSeries("n", []int64{1, 2, 3, 4, 5, 6}, nil)))

	require.NoError(t, New("Churn", nil).Encode(tbl))

	// k=4 distinct -> k-1 indicators plus the untouched numeric column.
	assert.Equal(t, 4, tbl.NumCols())
	assert.False(t, tbl.HasColumn("cat"))
}

func TestEncode_BoolCast(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewBoolSeries("flag", []bool{true, false, true}, nil)))

	require.NoError(t, New("Churn", nil).Encode(tbl))
	assert.Equal(t, []int64{1, 0, 1}, intValues(t, tbl, "flag"))
}

func TestEncode_TargetColumnIsLeftAlone(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewStringSeries("Churn", []string{"Yes", "No"}, nil)))

	require.NoError(t, New("Churn", nil).Encode(tbl))
	col, _ := tbl.Column("Churn")
	assert.Equal(t, dataset.String, col.Type())
}

func TestEncode_NumericTableUnchanged(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddColumn(dataset.NewFloatSeries("a", []float64{1.5, 2.5}, nil)))
	require.NoError(t, tbl.AddColumn(dataset.NewIntSeries("b", []int64{1, 2}, nil)))

	require.NoError(t, New("Churn", nil).Encode(tbl))

	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	a, _ := tbl.Column("a")
	v, _ := a.FloatAt(0)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, []int64{1, 2}, intValues(t, tbl, "b"))
}

func TestBinaryMapping(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   map[string]int64
	}{
		{"yes_no", []string{"No", "Yes"}, map[string]int64{"No": 0, "Yes": 1}},
		{"gender", []string{"Female", "Male"}, map[string]int64{"Female": 0, "Male": 1}},
		{"generic", []string{"Z", "A"}, map[string]int64{"A": 0, "Z": 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, binaryMapping(tc.values))
		})
	}
}

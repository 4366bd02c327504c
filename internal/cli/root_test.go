package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/churnpipe/internal/validate"
)

const fixtureCSV = `customerID,gender,Partner,Dependents,tenure,PhoneService,InternetService,Contract,MonthlyCharges,TotalCharges,Churn
0001-TEST,Male,Yes,No,12,Yes,DSL,Month-to-month,50.0,600.0,No
0002-TEST,Female,No,Yes,40,No,Fiber optic,Two year,80.0,3200.0,No
0003-TEST,Male,No,No,2,Yes,No,Month-to-month,70.5,141.0,Yes
0004-TEST,Female,Yes,No,60,Yes,DSL,One year,55.0,3300.0,No
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if testing.Verbose() && errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "churnpipe "+Version)
	assert.Contains(t, out, "go version:")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "churnpipe "+Version+"\n", out)
}

func TestValidateCommand_Passes(t *testing.T) {
	out, err := execute(t, "validate", "--input", writeFixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "FAIL")
}

func TestValidateCommand_JSONFormat(t *testing.T) {
	out, err := execute(t, "validate", "--input", writeFixture(t), "--format", "json")
	require.NoError(t, err)

	var report validate.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Success)
	assert.Equal(t, 13, report.TotalChecks)
}

func TestValidateCommand_FailsOnBadData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	bad := strings.ReplaceAll(fixtureCSV, "Fiber optic", "Cable")
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	out, err := execute(t, "validate", "--input", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "FAIL")
}

func TestValidateCommand_MissingInput(t *testing.T) {
	_, err := execute(t, "validate", "--input", filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
}

func TestPrepareCommand(t *testing.T) {
	processed := filepath.Join(t.TempDir(), "processed.csv")
	out, err := execute(t, "prepare", "--input", writeFixture(t), "--processed", processed)
	require.NoError(t, err)

	assert.Contains(t, out, "processed dataset written to "+processed)
	assert.FileExists(t, processed)

	data, err := os.ReadFile(processed)
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.NotContains(t, header, "customerID")
	assert.Contains(t, header, "Churn")
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, "validate", "--input", writeFixture(t), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "definitely-not-a-command")
	require.Error(t, err)
}

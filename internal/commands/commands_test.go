package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/rollcheck/internal/config"
	"github.com/cleared-dev/rollcheck/internal/report"
)

var (
	binaryPath  string
	testdataDir string
)

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "rollcheck-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "rollcheck")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/rollcheck")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	testdataDir, err = filepath.Abs("../../testdata")
	if err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// runRollcheck runs the binary in an empty directory so no stray
// rollcheck.yaml or .env is picked up.
func runRollcheck(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "ROLLCHECK_LOG_LEVEL=warn", "ROLLCHECK_EXTRACTION_BACKEND=file")
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

func testdata(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestVersion(t *testing.T) {
	out, _, err := runRollcheck(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "rollcheck version dev")
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runRollcheck(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, config.FileName)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = os.Stat(filepath.Join(dir, ".env.example"))
	require.NoError(t, err)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runRollcheck(t, "init", dir)
	require.NoError(t, err)

	_, stderr, err := runRollcheck(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")

	_, _, err = runRollcheck(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestProrate(t *testing.T) {
	out, _, err := runRollcheck(t, "prorate", "1200", "11/30/2025", "12/31/2025")
	require.NoError(t, err)
	assert.Equal(t, "600.00\n", out)

	out, _, err = runRollcheck(t, "prorate", "--verbose", "$26,406", "2025-03-31", "2026-05-31")
	require.NoError(t, err)
	assert.Equal(t, "26406.00 / 12 months = 2200.50\n", out)
}

func TestProrate_NegativeRent(t *testing.T) {
	out, stderr, err := runRollcheck(t, "prorate", "--", "-1200", "11/30/2025", "12/31/2025")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "must not be negative")
}

func TestProrate_BadDate(t *testing.T) {
	_, stderr, err := runRollcheck(t, "prorate", "1200", "Mar 2025", "12/31/2025")
	require.Error(t, err)
	assert.Contains(t, stderr, "analysis date")
}

func TestNormalize_ArgusCSV(t *testing.T) {
	out, _, err := runRollcheck(t, "normalize", "argus", testdata("argus_extraction.json"))
	require.NoError(t, err)

	want, err := os.ReadFile(testdata("argus_units.csv"))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(string(want)), strings.TrimSpace(out))
}

func TestNormalize_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actual.json")
	_, _, err := runRollcheck(t, "normalize", "actual", testdata("actual_extraction.json"), "--format", "json", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var units []map[string]any
	require.NoError(t, json.Unmarshal(data, &units))
	require.Len(t, units, 4)
	assert.Equal(t, "101", units[0]["unit_number"])
}

func TestNormalize_UnknownKind(t *testing.T) {
	_, stderr, err := runRollcheck(t, "normalize", "budget", testdata("actual_extraction.json"))
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown roll kind")
}

func TestNormalize_MissingAnalysisDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "argus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"units": []}`), 0o644))

	_, stderr, err := runRollcheck(t, "normalize", "argus", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "analysis_date")
}

func TestReconcile_CSV(t *testing.T) {
	out, _, err := runRollcheck(t, "reconcile", testdata("actual_units.csv"), testdata("argus_units.csv"), "--format", "json")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Discrepancies, 5)
	assert.Equal(t, "50.00", doc.TotalMonthlyRentDelta)
	assert.Equal(t, "0.0063", doc.PercentageVariance)
	assert.Equal(t, 3, doc.Summary.MatchedUnits)
	assert.Equal(t, "actual_only", doc.Discrepancies[2].PresentIn)
	assert.Equal(t, "argus_only", doc.Discrepancies[4].PresentIn)
}

func TestReconcile_MixedInputsMatchCompare(t *testing.T) {
	mixed, _, err := runRollcheck(t, "reconcile", testdata("actual_extraction.json"), testdata("argus_units.csv"), "-f", "json")
	require.NoError(t, err)

	compared, _, err := runRollcheck(t, "compare", testdata("actual_extraction.json"), testdata("argus_extraction.json"), "-f", "json")
	require.NoError(t, err)

	assert.JSONEq(t, compared, mixed)
}

func TestReconcile_Threshold(t *testing.T) {
	out, _, err := runRollcheck(t, "reconcile", testdata("actual_units.csv"), testdata("argus_units.csv"), "-f", "json", "--threshold", "100")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	for _, d := range doc.Discrepancies {
		assert.NotEqual(t, "monthly_rent", d.FieldName)
	}
	assert.Equal(t, "50.00", doc.TotalMonthlyRentDelta)
	assert.Equal(t, "100", doc.Summary.MaterialityThreshold)
}

func TestReconcile_NegativeThreshold(t *testing.T) {
	_, stderr, err := runRollcheck(t, "reconcile", testdata("actual_units.csv"), testdata("argus_units.csv"), "--threshold", "-1")
	require.Error(t, err)
	assert.Contains(t, stderr, "must not be negative")
}

func TestCompare_Markdown(t *testing.T) {
	out, _, err := runRollcheck(t, "compare", testdata("actual_extraction.json"), testdata("argus_extraction.json"),
		"--format", "markdown", "--title", "Harbor Plaza")
	require.NoError(t, err)
	assert.Contains(t, out, "# Harbor Plaza")
	assert.Contains(t, out, "+50.00")
	assert.Contains(t, out, "**Percentage variance:** 0.63%")
}

func TestCompare_Table(t *testing.T) {
	out, _, err := runRollcheck(t, "compare", testdata("actual_extraction.json"), testdata("argus_extraction.json"), "-f", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "occupant_name")
	assert.True(t, strings.HasSuffix(out, "Total monthly rent delta: +50.00 | Percentage variance: 0.63%\n"))
}

func TestCompare_FormatHelp(t *testing.T) {
	out, _, err := runRollcheck(t, "compare", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "default table on a terminal, json otherwise")
}

func TestCompare_BadFormat(t *testing.T) {
	_, _, err := runRollcheck(t, "compare", testdata("actual_extraction.json"), testdata("argus_extraction.json"), "-f", "html")
	require.Error(t, err)
}

func TestCompare_MissingKey(t *testing.T) {
	cmd := exec.Command(binaryPath, "compare", testdata("actual_extraction.json"), testdata("argus_extraction.json"))
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"ROLLCHECK_EXTRACTION_BACKEND=gemini", "GEMINI_API_KEY=", "GOOGLE_API_KEY=")
	out, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(out), "GEMINI_API_KEY")
}

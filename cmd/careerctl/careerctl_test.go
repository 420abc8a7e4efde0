package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-matching/internal/matching/matchingtest"
)

const catalogCSV = `career_name,description,required_skills,qualifications,industry_type
Data Scientist,Analyze data and build statistical models,"Python, SQL, Statistics",Master's,Technology
Software Engineer,Design and build software systems,"Java, Python, Algorithms",Bachelor's,Technology
Accountant,Prepare financial statements and audits,"Excel, Bookkeeping",Bachelor's,Finance
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	matchingtest.WriteFile(t, dir, "careers.csv", catalogCSV)
	return filepath.Join(dir, "careers.csv")
}

// ==========================
// inspect
// ==========================

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	matchingtest.WriteBundle(t, dir, matchingtest.DefaultBundle())

	out, err := run(t, "", "inspect", "--dir", dir)
	require.NoError(t, err)

	var summary bundleSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "test-v1", summary.Version)
	assert.Equal(t, 8, summary.Features)
	assert.Equal(t, 4, summary.Skills)
	assert.Len(t, summary.Targets, 4)
}

func TestInspect_MissingDir(t *testing.T) {
	_, err := run(t, "", "inspect")
	require.Error(t, err)

	_, err = run(t, "", "inspect", "--dir", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

// ==========================
// predict / evaluate
// ==========================

func TestPredict_SimilarityWithoutBundle(t *testing.T) {
	csvPath := writeCatalog(t)

	out, err := run(t, `{"education":"Bachelor's","skills":["java","algorithms"]}`,
		"predict", "--csv", csvPath, "--strategy", "similarity", "--top-k", "2")
	require.NoError(t, err)

	var res struct {
		Strategy        string `json:"strategy"`
		Recommendations struct {
			Similarity []struct {
				Title string `json:"title"`
			} `json:"similarity"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "similarity", res.Strategy)
	require.Len(t, res.Recommendations.Similarity, 2)
	assert.Equal(t, "Software Engineer", res.Recommendations.Similarity[0].Title)
}

func TestPredict_ClassifierNeedsBundle(t *testing.T) {
	_, err := run(t, `{"education":"PhD"}`, "predict", "--csv", writeCatalog(t), "--strategy", "classifier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dir")
}

func TestEvaluate(t *testing.T) {
	profiles := `[
		{"userId":"1","educationLevel":"Bachelor's","skills":"java, algorithms","actualCareer":"Software Engineer"},
		{"userId":"2","educationLevel":"Bachelor's","skills":"excel, bookkeeping","actualCareer":"Data Scientist"},
		{"userId":"3","educationLevel":"PhD","skills":"python"}
	]`

	out, err := run(t, profiles, "evaluate", "--csv", writeCatalog(t), "--k", "1")
	require.NoError(t, err)

	var report evaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "similarity", report.Strategy)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, []string{"3"}, report.Skipped)
	assert.Equal(t, 0.5, report.MeanPrecision)
	assert.Equal(t, []string{"Software Engineer"}, report.Results[0].PredictedCareers)
	assert.Equal(t, []string{"Accountant"}, report.Results[1].PredictedCareers)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "careerctl version: unknown\n", out)
}

// ==========================
// activities
// ==========================

func TestActivities_WriteAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	_, err := run(t, "", "activities", "--out", path)
	require.NoError(t, err)

	out, err := run(t, "", "activities", "--validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(4 activities)")
}

func TestActivities_ValidateReportsMissing(t *testing.T) {
	dir := t.TempDir()
	matchingtest.WriteFile(t, dir, "reg.json", `{"version":"1","activities":[{"id":"x","taskType":"match-careers","inputSchema":{"type":"object"}}]}`)

	_, err := run(t, "", "activities", "--validate", filepath.Join(dir, "reg.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing activity recommend-careers")
	assert.NotContains(t, err.Error(), "missing activity match-careers")
}

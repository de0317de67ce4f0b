package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCategories(t *testing.T) {
	out, err := run(t, "", "categories")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(flows.MenuCategories()))
	assert.True(t, strings.HasPrefix(lines[0], flows.CategoryBankTransfer))
	assert.Contains(t, out, "Buying something online (4 questions)")
}

func TestCategoriesUnknownPolicy(t *testing.T) {
	_, err := run(t, "", "categories", "--policy", "loose")
	require.Error(t, err)
}

func TestCheckWizardLowRisk(t *testing.T) {
	// marketplace is the fourth menu entry
	out, err := run(t, "4\n2\n2\n2\n2\n", "check")
	require.NoError(t, err)

	assert.Contains(t, out, "What is this about?")
	assert.Contains(t, out, "Question 1 of 4")
	assert.Contains(t, out, "LOW RISK")
	assert.Contains(t, out, risk.AdviceLow)
	assert.Contains(t, out, "You have seen the item in person.")
}

func TestCheckWizardAcceptsOptionValues(t *testing.T) {
	out, err := run(t, "yes\nno\nno\nno\n", "check", "marketplace")
	require.NoError(t, err)
	assert.Contains(t, out, "HIGH RISK")
	assert.Contains(t, out, "Red flags:")
}

func TestCheckWizardBackAndInvalid(t *testing.T) {
	// 9 is not an option, then answer yes, undo it and answer no
	out, err := run(t, "9\n1\nb\n2\n2\n2\n2\n", "check", "marketplace")
	require.NoError(t, err)
	assert.Contains(t, out, "Invalid selection")
	assert.Contains(t, out, "LOW RISK")
}

func TestCheckWizardBackFromFirstQuestionShowsMenu(t *testing.T) {
	out, err := run(t, "b\nq\n", "check", "marketplace")
	require.NoError(t, err)
	assert.Contains(t, out, "What is this about?")
	assert.Contains(t, out, "Cancelled.")
}

func TestCheckWizardRestart(t *testing.T) {
	out, err := run(t, "1\nr\n4\n2\n2\n2\n2\n", "check", "marketplace")
	require.NoError(t, err)
	assert.Contains(t, out, "What is this about?")
	assert.Contains(t, out, "LOW RISK")
}

func TestCheckWizardRedirect(t *testing.T) {
	out, err := run(t, "1\nyes\nyes\nyes\nyes\n", "check", flows.CategoryOther)
	require.NoError(t, err)
	assert.Contains(t, out, "That sounds like: Buying something online")
	assert.Contains(t, out, "HIGH RISK")
}

func TestCheckWizardQuitAndEOF(t *testing.T) {
	out, err := run(t, "q\n", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = run(t, "2\n", "check", "marketplace")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.NotContains(t, out, "RISK")
}

func TestCheckUnknownCategory(t *testing.T) {
	_, err := run(t, "", "check", "lottery")
	require.ErrorIs(t, err, assessment.ErrUnavailableCategory)
}

func TestAssessJSON(t *testing.T) {
	out, err := run(t, "", "assess", "--category", "marketplace", "--answers", "no,yes,no,no", "--json")
	require.NoError(t, err)

	var r risk.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, risk.NeutralRisk, r.RiskLevel)
	assert.Contains(t, r.MissedBestPractices, "The item has not been seen in person.")
}

func TestAssessText(t *testing.T) {
	out, err := run(t, "", "assess", "-c", "other", "-a", "purchase-or-item,yes,yes,yes,yes")
	require.NoError(t, err)
	assert.Contains(t, out, "HIGH RISK")
}

func TestAssessErrors(t *testing.T) {
	_, err := run(t, "", "assess", "--category", "marketplace", "--answers", "no,yes")
	require.ErrorIs(t, err, assessment.ErrIncomplete)

	_, err = run(t, "", "assess", "--category", "marketplace", "--answers", "no,no,no,no,no")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past the end")

	_, err = run(t, "", "assess", "--category", "marketplace", "--answers", "maybe,no,no,no", "--policy", "strict")
	require.ErrorIs(t, err, assessment.ErrUnknownOption)

	_, err = run(t, "", "assess", "--answers", "no")
	require.Error(t, err)
}

func TestAssessLenientUnknown(t *testing.T) {
	out, err := run(t, "", "assess", "--category", "marketplace", "--answers", "maybe,no,no,no", "--json")
	require.NoError(t, err)

	var r risk.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 1, r.UnknownResponses)
}

func TestFlowsExportAndValidate(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "flows", "export", dir)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(flows.Defaults()))

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	require.Len(t, files, len(flows.Defaults()))

	out, err = run(t, "", append([]string{"flows", "validate"}, files...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "(marketplace, 4 questions)")
}

func TestFlowsValidateInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("category: marketplace\ntitle: Empty\nquestions: []\n"), 0o644))

	out, err := run(t, "", "flows", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, err.Error(), "1 of 1")
}

func TestFlowsDirOverride(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "", "flows", "export", dir)
	require.NoError(t, err)

	f := flows.Defaults()[flows.CategoryMarketplace]
	f.Title = "Second-hand purchase"
	require.NoError(t, flows.WriteFile(filepath.Join(dir, "marketplace.yaml"), f))

	out, err := run(t, "", "categories", "--flows-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Second-hand purchase")
}

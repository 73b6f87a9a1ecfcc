package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/mchmarny/riskctl/pkg/logging"
	"github.com/mchmarny/riskctl/pkg/risk"
)

func TestMain(m *testing.M) {
	logging.SetDefault(logging.Options{Level: "error", Format: logging.FormatCLI})
	keyring.MockInit()

	code := m.Run()
	os.Exit(code)
}

var scoreArgs = []string{
	"score",
	"--age", "28",
	"--income", "1200000",
	"--loan-amount", "2560000",
	"--tenure", "36",
	"--dpd", "20",
	"--delinquency", "30",
	"--utilization", "30",
	"--accounts", "2",
	"--residence", "owned",
	"--purpose", "Education",
	"--loan-type", "Unsecured",
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{appName, "--config-dir", t.TempDir()}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestScoreCmd(t *testing.T) {
	out, err := runApp(t, "", scoreArgs...)
	require.NoError(t, err)

	var resp assessResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Assessment)
	assert.GreaterOrEqual(t, resp.Assessment.CreditScore, 300)
	assert.LessOrEqual(t, resp.Assessment.CreditScore, 900)
	assert.Contains(t, []string{"Poor", "Average", "Good", "Excellent"}, resp.Display.Rating)
	assert.Equal(t, "2.13", resp.LoanToIncome)
	assert.True(t, strings.HasSuffix(resp.Display.Probability, "%"))
}

func TestScoreCmd_Deterministic(t *testing.T) {
	out1, err := runApp(t, "", scoreArgs...)
	require.NoError(t, err)
	out2, err := runApp(t, "", scoreArgs...)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestScoreCmd_YAML(t *testing.T) {
	args := append([]string{"--format", "yaml"}, scoreArgs...)
	out, err := runApp(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "credit_score:")
	assert.Contains(t, out, "loan_to_income: \"2.13\"")
}

func TestScoreCmd_Incomplete(t *testing.T) {
	_, err := runApp(t, "", "score", "--age", "30", "--residence", risk.Placeholder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), risk.MsgIncomplete)

	var ve *risk.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestScoreCmd_RemoteScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"probability":0.1234,"credit_score":720,"rating":"Good"}`))
	}))
	defer srv.Close()

	args := append([]string{"--scorer-url", srv.URL}, scoreArgs...)
	out, err := runApp(t, "", args...)
	require.NoError(t, err)

	var resp assessResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, risk.Display{Probability: "12.34%", CreditScore: "720", Rating: "Good"}, resp.Display)
}

func TestScoreCmd_RemoteScorerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	args := append([]string{"--scorer-url", srv.URL}, scoreArgs...)
	_, err := runApp(t, "", args...)
	require.Error(t, err)

	var se *risk.ScoringError
	assert.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), risk.MsgScoringFailed)
}

func TestModelShowCmd(t *testing.T) {
	out, err := runApp(t, "", "--format", "yaml", "model", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "name: lauki-logistic")
	assert.Contains(t, out, "label: Excellent")
}

func TestModelShowCmd_MissingFile(t *testing.T) {
	_, err := runApp(t, "", "--model", filepath.Join(t.TempDir(), "nope.yaml"), "model", "show")
	assert.Error(t, err)
}

func TestModelPullCmd(t *testing.T) {
	doc := "name: pulled\nscore: {base: 300, span: 600}\nratings: [{min: 300, label: Only}]\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "pulled.yaml")
	_, err := runApp(t, "", "model", "pull", "--url", srv.URL, "--out", path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(b))

	out, err := runApp(t, "", "--model", path, "model", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "pulled"`)
}

func TestAuthCmd(t *testing.T) {
	dir := t.TempDir()

	run := func(stdin string, args ...string) (string, error) {
		app := newApp()
		var out bytes.Buffer
		app.Writer = &out
		app.Reader = strings.NewReader(stdin)
		err := app.Run(append([]string{appName, "--config-dir", dir}, args...))
		return out.String(), err
	}

	out, err := run("", "auth", "set", "--token", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved")

	out, err = run("from-stdin\n", "auth", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved")

	v, err := keyring.Get(keyringServiceForTest, keyringUserForTest)
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", v)

	out, err = run("", "auth", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Token removed")

	_, err = run("\n", "auth", "set")
	assert.Error(t, err)
}

const (
	keyringServiceForTest = "riskctl"
	keyringUserForTest    = "scorer_token"
)

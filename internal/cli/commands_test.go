package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aquaplan/internal/config"
)

var referenceBase = []string{
	"design_flow_Ls=100.0",
	"raw_turbidity_NTU=50",
	"raw_ph=7.2",
	"raw_temperature_C=20",
	"target_turbidity_NTU=1",
	"population=30000",
	"per_capita_demand_Lpd=200",
	"site_area_m2=3000",
	"site_road_access=true",
	"site_power_available=false",
	"site_chemical_distance_km=50",
	"operator_skill_level=3",
	"spare_parts_lead_days=30",
}

var trainOrder = []string{"pretreatment", "mixing", "flocculation", "sedimentation", "filtration", "disinfection", "tank", "hydraulics", "massbalance"}

// cliEnv runs commands against one temp directory: config search is pinned
// there and every command shares its database.
type cliEnv struct {
	t   *testing.T
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	return &cliEnv{t: t, dir: t.TempDir()}
}

func (c *cliEnv) exec(args ...string) (string, error) {
	c.t.Helper()
	opts := &RootOptions{loaderOpts: []config.LoaderOption{
		config.WithHomeDir(c.dir),
		config.WithWorkDir(c.dir),
	}}
	cmd := newRootCommand(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", filepath.Join(c.dir, "plant.db")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cliEnv) json(args ...string) (CLIResponse, error) {
	c.t.Helper()
	out, err := c.exec(append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(c.t, json.Unmarshal([]byte(out), &resp), out)
	return resp, err
}

func (c *cliEnv) createProject() string {
	c.t.Helper()
	args := []string{"project", "create", "Riverside"}
	for _, b := range referenceBase {
		args = append(args, "--base", b)
	}
	resp, err := c.json(args...)
	require.NoError(c.t, err)
	data := resp.Data.(map[string]any)
	id, _ := data["id"].(string)
	require.NotEmpty(c.t, id)
	return id
}

func TestProjectLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()

	out, err := env.exec("project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, pid)
	assert.Contains(t, out, "Riverside")

	out, err = env.exec("project", "show", pid)
	require.NoError(t, err)
	assert.Contains(t, out, "population")
	assert.Contains(t, out, "MODULE")
	assert.Contains(t, out, "pretreatment")

	out, err = env.exec("project", "delete", pid)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted project "+pid)

	resp, err := env.json("status", pid)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E231", resp.Error.Code)
}

func TestProjectCreate_FromFile(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: 30000\nsite_area_m2: 3000\n"), 0644))

	out, err := env.exec("project", "create", "Hillside", "--file", path, "--base", "population=40000")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 base inputs")
}

func TestProjectCreate_UnknownBaseInput(t *testing.T) {
	env := newCLIEnv(t)
	resp, err := env.json("project", "create", "Bad", "--base", "colour=blue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeArgument, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "not a base input")
}

func TestRunTrainAndReports(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()

	for _, id := range trainOrder {
		_, err := env.exec("run", pid, id)
		require.NoError(t, err, id)
	}

	out, err := env.exec("status", pid)
	require.NoError(t, err)
	for _, id := range trainOrder {
		assert.Contains(t, out, id)
	}
	assert.NotContains(t, out, "stale")

	out, err = env.exec("balance", pid)
	require.NoError(t, err)
	assert.Contains(t, out, "No violations")

	resp, err := env.json("viability", pid)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Viable with conditions", data["tier"])

	out, err = env.exec("rerun", pid)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing stale.")
}

func TestRun_TextOutput(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()

	out, err := env.exec("run", pid, "pretreatment", "--param", "depth_m=2")
	require.NoError(t, err)
	assert.Contains(t, out, "pretreatment: complete")
	assert.Contains(t, out, "Outputs:")
	assert.Contains(t, out, "pretreatment.outflow_Ls")
	assert.Contains(t, out, "Design checks:")
}

func TestRun_CallerErrorsExitOne(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()

	resp, err := env.json("run", pid, "sedimentation")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E211", resp.Error.Code)

	resp, err = env.json("run", pid, "pretreatment", "--param", "surface_rate_m3m2d=2000")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E212", resp.Error.Code)

	_, err = env.exec("run", pid, "pretreatment", "--param", "nonsense")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProjectSet_MarksStaleAndRerun(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()
	for _, id := range trainOrder {
		_, err := env.exec("run", pid, id)
		require.NoError(t, err, id)
	}

	resp, err := env.json("project", "set", pid, "population=40000")
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{"tank", "massbalance"}, data["stale"])

	out, err := env.exec("status", pid)
	require.NoError(t, err)
	assert.Contains(t, out, "stale")

	out, err = env.exec("rerun", pid)
	require.NoError(t, err)
	assert.Equal(t, "tank: complete\nmassbalance: complete\n", out)
}

func TestRerun_StopsAtBlockedModule(t *testing.T) {
	env := newCLIEnv(t)
	pid := env.createProject()
	for _, id := range trainOrder {
		_, err := env.exec("run", pid, id)
		require.NoError(t, err, id)
	}

	_, err := env.exec("run", pid, "filtration", "--param", "removal_fraction=0.5")
	require.NoError(t, err)

	resp, err := env.json("rerun", pid)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E216", resp.Error.Code)
	details := resp.Error.Details.(map[string]any)
	assert.Equal(t, "disinfection", details["stopped_at"])
}

func TestModulesCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.exec("modules")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Base inputs: "))
	assert.Contains(t, out, "1. pretreatment - ")
	assert.Contains(t, out, "must pass: filtration.effluent_turbidity")
	assert.Contains(t, out, "Viability criteria:")

	resp, err := env.json("modules")
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["modules"], len(trainOrder))
}

func TestValidateCommand_Embedded(t *testing.T) {
	env := newCLIEnv(t)
	resp, err := env.json("validate")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.exec("test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ full_train")
	assert.Contains(t, out, "0 failed")

	out, err = env.exec("test", filepath.Join("..", "harness", "testdata", "scenarios"), "--filter", "policy_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_GoldenMismatchAndUpdate(t *testing.T) {
	env := newCLIEnv(t)
	scenarios := filepath.Join(env.dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	src, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "scenarios", "full_train.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "full_train.yaml"), src, 0644))

	golden := filepath.Join(env.dir, "golden", "full_train.golden")
	require.NoError(t, os.MkdirAll(filepath.Dir(golden), 0755))
	require.NoError(t, os.WriteFile(golden, []byte("scenario: full_train\n"), 0644))

	out, err := env.exec("test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")

	out, err = env.exec("test", scenarios, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")

	_, err = env.exec("test", scenarios)
	require.NoError(t, err)
}

func TestTestCommand_MissingDir(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.exec("test", filepath.Join(env.dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

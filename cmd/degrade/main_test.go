package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/degrade/raster"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	inputDir   string
	outputDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	require.NoError(t, os.MkdirAll(home, 0o755))
	t.Setenv("HOME", home)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		inputDir:   filepath.Join(base, "in"),
		outputDir:  filepath.Join(base, "out"),
	}
	content := fmt.Sprintf(`[corruption]
fixed_corruptions = ["jpeg-medium"]
num_corrupts_per_image = 2
random_corruptions = ["gaussian_blur", "noise", "saturation"]

[run]
batch_size = 2
workers = 2

[progress]
db_path = %q

[logging]
level = "error"
no_color = true
`, filepath.Join(base, "progress.db"))
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o644))
	return env
}

func writeTestImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		m := raster.New(16, 16, 3)
		for y := range 16 {
			for x := range 16 {
				for c := range 3 {
					m.Set(y, x, c, float64((x*7+y*3+c*5+i*11)%16)/15)
				}
			}
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, raster.Save(m, path, 95))
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	_, err = os.Stat(target)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
}

func TestConfigValidateReportsBadCorruption(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[corruption]\nfixed_corruptions = [\"glitter\"]\n"), 0o644))

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glitter")
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "jpeg-medium")
	assert.Contains(t, out, "[run]")
}

func TestPlanIsDeterministic(t *testing.T) {
	env := setupCLITestEnv(t)

	first, _, err := runCLI(t, []string{"plan", "--seed", "9", "--count", "4"}, env.configPath)
	require.NoError(t, err)
	second, _, err := runCLI(t, []string{"plan", "--seed", "9", "--count", "4"}, env.configPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "jpeg-medium")
	assert.Contains(t, first, "quality 23–48")
	assert.Contains(t, first, "BATCH")
}

func TestPlanWithoutCorruptions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"error\"\n"), 0o644))

	out, _, err := runCLI(t, []string{"plan"}, path)
	require.NoError(t, err)
	assert.Contains(t, out, "copied unchanged")
}

func TestCorruptRunAndResume(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTestImages(t, env.inputDir, "a.png", "b.png", "sub/c.png")

	args := []string{"corrupt", "--input", env.inputDir, "--output", env.outputDir, "--seed", "3"}
	out, _, err := runCLI(t, args, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed")

	for _, name := range []string{"a.png", "b.png", "sub/c.png", "entropy.jsonl"} {
		_, err := os.Stat(filepath.Join(env.outputDir, filepath.FromSlash(name)))
		require.NoError(t, err, name)
	}

	out, _, err = runCLI(t, append(args, "--json"), env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"skipped": 3`)
	assert.Contains(t, out, `"processed": 0`)

	out, _, err = runCLI(t, []string{"progress", "status"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "corrupt")
	assert.Contains(t, out, "3")

	out, _, err = runCLI(t, []string{"progress", "list"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sub/c.png")

	_, _, err = runCLI(t, []string{"progress", "reset", "--task", "corrupt"}, env.configPath)
	require.NoError(t, err)

	out, _, err = runCLI(t, append(args, "--json"), env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"processed": 3`)
}

func TestCorruptRequiresDirectories(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"corrupt", "--no-resume"}, env.configPath)
	require.Error(t, err)
}

func TestInspectIdenticalImages(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTestImages(t, env.inputDir, "a.png")
	path := filepath.Join(env.inputDir, "a.png")

	out, _, err := runCLI(t, []string{"inspect", path, path}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "identical")
	assert.Contains(t, out, "∞")

	out, _, err = runCLI(t, []string{"inspect", "--json", path, path}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"psnr_db": null`)
	assert.Contains(t, out, `"severity": "identical"`)
}

func TestInspectNeedsTwoImages(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"inspect", "one.png"}, env.configPath)
	require.Error(t, err)
}

func TestProgressRejectsUnknownTask(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"progress", "reset", "--task", "transcode"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

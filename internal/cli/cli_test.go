package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/view"
)

// writeTestConfig points storage at a temp database and keeps desktop
// notifications off.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  path: " + filepath.Join(dir, "tasks.db") + "\n" +
		"reminders:\n  notifications: denied\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSayThenList(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "", "say", "add", "buy", "milk", "high")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1 task.")

	out, err = run(t, cfg, "", "say", "add call mom, water plants")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2 tasks.")

	out, err = run(t, cfg, "", "list", "--sort", "priority")
	require.NoError(t, err)
	assert.Contains(t, out, "buy milk")
	assert.Contains(t, out, "water plants")
	assert.Less(t, strings.Index(out, "buy milk"), strings.Index(out, "call mom"))
}

func TestSayUnknownCommandFails(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "", "say", "sing", "a", "song")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not recognized")
}

func TestSayDeleteAllWithYes(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "", "say", "add", "one")
	require.NoError(t, err)

	out, err := run(t, cfg, "", "say", "--yes", "delete", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "All tasks deleted.")

	out, err = run(t, cfg, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks.")
}

func TestListenReadsStdin(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "add walk dog\ncomplete 1\n", "listen")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1 task.")
	assert.Contains(t, out, "Completed task 1.")

	out, err = run(t, cfg, "", "list", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "walk dog")
}

func TestListenStopsOnStopCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "stop\nadd ignored\n", "listen")
	require.NoError(t, err)
	assert.Contains(t, out, "Session ended.")
	assert.NotContains(t, out, "Added")
}

func TestListDeletedAndValidation(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "", "say", "add", "old", "task")
	require.NoError(t, err)
	_, err = run(t, cfg, "", "say", "delete", "1")
	require.NoError(t, err)

	out, err := run(t, cfg, "", "list", "--deleted")
	require.NoError(t, err)
	assert.Contains(t, out, "old task")

	_, err = run(t, cfg, "", "list", "--status", "someday")
	assert.Error(t, err)
}

func TestExportToStdout(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "", "say", "add", "export", "me")
	require.NoError(t, err)

	out, err := run(t, cfg, "", "export", "--format", "yaml", "--output", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "text: export me")

	_, err = run(t, cfg, "", "export", "--format", "csv")
	assert.Error(t, err)
}

func TestEmailSetAndShow(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "", "email", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Email relay not configured.")

	_, err = run(t, cfg, "", "email", "set",
		"--server", "smtp.example.com:587", "--template", "plain", "--user", "me@example.com")
	require.NoError(t, err)

	out, err = run(t, cfg, "", "email", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "smtp.example.com:587")
	assert.Contains(t, out, "Email relay configured.")

	_, err = run(t, cfg, "", "email", "set", "--server", "no-port")
	assert.Error(t, err)
	_, err = run(t, cfg, "", "email", "set", "--template", "fancy")
	assert.Error(t, err)
}

func TestRemindersCheckWithNothingDue(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "", "reminders", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "0 reminder(s) delivered.")
}

func TestConfigShowAndInit(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "notifications: denied")
	assert.Contains(t, out, "poll_interval_sec: 20")

	_, err = run(t, cfg, "", "config", "init")
	assert.Error(t, err, "existing file is kept")

	fresh := filepath.Join(t.TempDir(), "new.yaml")
	_, err = run(t, fresh, "", "config", "init")
	require.NoError(t, err)
	loaded, err := model.LoadConfig(fresh)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.Reminders.PollIntervalSec)
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery("active", "high", "name", "milk")
	require.NoError(t, err)
	assert.Equal(t, view.Query{Status: view.StatusActive, Priority: model.PriorityHigh, Sort: view.SortName, Search: "milk"}, q)

	_, err = buildQuery("all", "urgent", "date", "")
	assert.Error(t, err)
	_, err = buildQuery("all", "all", "size", "")
	assert.Error(t, err)
}

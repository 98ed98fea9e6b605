package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/service"
	"github.com/forgo/gather/internal/testing/fixtures"
)

func writeSnapshot(t *testing.T) string {
	t.Helper()

	state := service.NewState()
	ada := fixtures.User("u1", "ada@example.com", fixtures.WithName("Ada"))
	state.Users[ada.ID] = ada
	state.Groups["g1"] = fixtures.Group("g1", ada.ID, "Run Club",
		fixtures.Event("Saturday 5k", fixtures.Epoch.Add(48*time.Hour), 60, fixtures.At("Parc Monceau")),
	)
	state.Log = []model.LogEntry{
		{Time: fixtures.Epoch, Kind: model.LogEmailSent, Email: ada.Email},
		{Time: fixtures.Epoch, Kind: model.LogEmailFailed, Email: ada.Email},
		{Time: fixtures.Epoch, Kind: model.LogUntrustedCheckFailed, Request: "AdminGetLogs"},
	}

	data, err := state.MarshalSnapshot(fixtures.Epoch)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:     "gatherctl",
		Writer:   &out,
		Commands: []*cli.Command{configCommand(), snapshotCommand(), calendarCommand(), mailCommand()},
	}
	err := app.Run(append([]string{"gatherctl"}, args...))
	return out.String(), err
}

func TestSnapshotInspect(t *testing.T) {
	t.Parallel()

	out, err := run(t, "snapshot", "inspect", writeSnapshot(t))
	require.NoError(t, err)
	assert.Contains(t, out, "users:           1")
	assert.Contains(t, out, "groups:          1")
	assert.Contains(t, out, "log entries:     3 (2 failures)")
	assert.Contains(t, out, "Run Club")

	_, err = run(t, "snapshot", "inspect")
	assert.ErrorContains(t, err, "snapshot file required")
}

func TestCalendarExport(t *testing.T) {
	t.Parallel()

	path := writeSnapshot(t)
	out, err := run(t, "calendar", "--site", "Gather", path, "g1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "SUMMARY:Saturday 5k")

	_, err = run(t, "calendar", path, "missing")
	assert.Error(t, err)
}

func TestSampleContent(t *testing.T) {
	t.Parallel()

	for _, kind := range []mail.Kind{mail.KindLogin, mail.KindDeleteAccount, mail.KindEventReminder} {
		c, err := sampleContent(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, c.Kind())
	}
	_, err := sampleContent("newsletter")
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func Test_ImportThenExport_RoundTripsThroughStorage(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "../configs/config.yaml")
	t.Setenv("DB_CONNECTION_STRING", filepath.Join(dir, "job-insights.db"))
	t.Setenv("CHANNEL_TRANSPORT", "local")

	ts := time.Now().UnixMilli()
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(fmt.Sprintf(`{
		"job_insights_12345": {"applies": 42, "views": 7, "lastSeen": "2026-01-01T12:00:00Z", "ts": %d},
		"job_insights_history": [{"jobId": "12345", "applies": 42, "views": 7, "lastSeen": "2026-01-01T12:00:00Z"}]
	}`, ts)), 0644))

	assert.Contains(t, execute(t, "import", "--in", in), "imported 2 keys")

	out := filepath.Join(dir, "out.json")
	assert.Contains(t, execute(t, "export", "--out", out), "exported 2 keys")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	snapshot, err := models.ParseSnapshot(data)
	require.NoError(t, err)
	assert.Contains(t, snapshot, models.EntityKey("12345"))
	assert.Contains(t, snapshot, models.HistoryKey)
}

func Test_Import_RejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(`["not", "a", "snapshot"]`), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"import", "--in", in})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot must be a JSON object")
}

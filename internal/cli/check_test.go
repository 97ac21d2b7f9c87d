package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIsolated(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testdataPath("isolated.yaml")})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "3 nodes, 2 contacts")
	assert.Contains(t, output, "hotspots: [gs1]")
	assert.Contains(t, output, "4 unreachable pairs")
	assert.Contains(t, output, "  gs1 -> gs2")
	assert.NotContains(t, output, "inconsistent")
}

func TestCheckConnectedJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testdataPath("tvg_legacy.json")})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Nodes)
	assert.Equal(t, 6, resp.Data.Contacts)
	assert.Empty(t, resp.Data.Unreachable)
	assert.True(t, resp.Data.GraphHealthy)
}

func TestCheckMissingPlan(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/plan.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading plan")
}

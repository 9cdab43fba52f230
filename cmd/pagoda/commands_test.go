package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tcommon "github.com/bobmcallan/pagoda/tests/common"
)

func writeReport(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(tcommon.SampleReport())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PAGODA_CONFIG", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSlicesCmd_Table(t *testing.T) {
	out, err := run(t, "", "slices", writeReport(t))
	require.NoError(t, err)
	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "Vegetable & Fruit")
	assert.Contains(t, out, "Meat & Egg")
	assert.NotContains(t, out, "Cereal")
}

func TestSlicesCmd_JSONFromStdin(t *testing.T) {
	data, err := json.Marshal(tcommon.SampleReport())
	require.NoError(t, err)

	out, err := run(t, "```json\n"+string(data)+"\n```", "slices", "--json", "-")
	require.NoError(t, err)

	var resp struct {
		HasChart bool `json:"has_chart"`
		Slices   []struct {
			Category string  `json:"category"`
			EndAngle float64 `json:"end_angle"`
		} `json:"slices"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.HasChart)
	require.Len(t, resp.Slices, 2)
	assert.Equal(t, 240.0, resp.Slices[0].EndAngle)
	assert.Equal(t, 360.0, resp.Slices[1].EndAngle)
}

func TestSlicesCmd_Errors(t *testing.T) {
	_, err := run(t, "", "slices", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "not a report", "slices", "-")
	assert.Error(t, err)
}

func TestRenderCmd(t *testing.T) {
	report := writeReport(t)
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "chart.png")
	_, err := run(t, "", "render", report, "-o", pngPath, "--size", "200")
	require.NoError(t, err)
	data, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	svgPath := filepath.Join(dir, "chart.svg")
	_, err = run(t, "", "render", report, "-o", svgPath)
	require.NoError(t, err)
	data, err = os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	_, err = run(t, "", "render", report, "-f", "gif")
	assert.Error(t, err)

	_, err = run(t, `{"dish_name":"白开水"}`, "render", "-", "-o", filepath.Join(dir, "empty.png"))
	assert.Error(t, err)
}

func TestHitCmd(t *testing.T) {
	report := writeReport(t)

	// Default 600px chart: right of centre at 90 degrees, mid ring.
	out, err := run(t, "", "hit", report, "--x", "510", "--y", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "L2 Vegetable & Fruit")
	assert.Contains(t, out, "西红柿")

	out, err = run(t, "", "hit", report, "--x", "300", "--y", "300")
	require.NoError(t, err)
	assert.Equal(t, "miss\n", out)

	_, err = run(t, "", "hit", report, "--x", "10")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pagoda "))
}

func TestAnalyzeCmd_RejectsNonImage(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := run(t, "", "analyze", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an image")
}

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guide.pdf")
	require.NoError(t, os.WriteFile(path, tcommon.MinimalPDF(pages...), 0644))
	return path
}

func TestGuidelinesCmd_Table(t *testing.T) {
	out, err := run(t, "", "guidelines", writePDF(t, "Eat more vegetables.", "Limit salt to 5g per day."))
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "Limit salt to 5g per day.")
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestGuidelinesCmd_JSON(t *testing.T) {
	out, err := run(t, "", "guidelines", "--json", writePDF(t, "Drink water."))
	require.NoError(t, err)

	var chunks []struct {
		Source string `json:"source"`
		Page   int    `json:"page"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 1)
	assert.Equal(t, "guide.pdf", chunks[0].Source)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Contains(t, chunks[0].Text, "Drink water.")
}

func TestGuidelinesCmd_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := run(t, "", "guidelines", path)
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "膳食宝...", preview("膳食宝塔", 3))
}

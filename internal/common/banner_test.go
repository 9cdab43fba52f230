package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowMap(rows [][2]string) map[string]string {
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r[0]] = r[1]
	}
	return m
}

func TestBannerRows_FileBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Images.Backend = "file"
	cfg.Images.Path = "data/images"
	cfg.Clients.Gemini.APIKey = "secret-key"

	rows := rowMap(bannerRows(cfg))
	assert.Equal(t, "file data/images", rows["photos"])
	assert.Equal(t, "10 MB", rows["upload limit"])
	assert.NotContains(t, rows["vision model"], "secret-key")
	assert.NotContains(t, rows["vision model"], "missing")
}

func TestBannerRows_S3BackendAndMissingKey(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Images = ImageConfig{Backend: "s3", Bucket: "meals", Prefix: "/uploads/", Endpoint: "http://minio:9000", MaxSizeMB: 4}
	cfg.Clients.Gemini.APIKey = ""

	rows := rowMap(bannerRows(cfg))
	assert.Equal(t, "s3://meals/uploads via http://minio:9000", rows["photos"])
	assert.Equal(t, "4 MB", rows["upload limit"])
	assert.Contains(t, rows["vision model"], "api key missing")
}

func TestWriteBanner_ListsEveryRow(t *testing.T) {
	cfg := NewDefaultConfig()
	var buf bytes.Buffer
	writeBanner(&buf, cfg)

	out := buf.String()
	assert.Contains(t, out, "P A G O D A")
	for _, row := range bannerRows(cfg) {
		assert.Contains(t, out, row[0])
	}
}

func TestPrintBanner_LogsRows(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Environment = "staging"
	PrintBanner(cfg, NewLoggerWithOutput("info", &buf))

	assert.Contains(t, buf.String(), `"environment":"staging"`)
	assert.Contains(t, buf.String(), `"upload_limit":`)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	tcommon "github.com/bobmcallan/pagoda/tests/common"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("PAGODA_CONFIG", "")
	binDir := t.TempDir()

	assert.Equal(t, "explicit.toml", resolveConfigPath("explicit.toml", binDir))
	assert.Equal(t, "config/pagoda.toml", resolveConfigPath("", binDir))

	local := filepath.Join(binDir, "pagoda.toml")
	require.NoError(t, os.WriteFile(local, []byte(""), 0644))
	assert.Equal(t, local, resolveConfigPath("", binDir))

	t.Setenv("PAGODA_CONFIG", "/etc/pagoda.toml")
	assert.Equal(t, "/etc/pagoda.toml", resolveConfigPath("", binDir))
}

func TestNew_WiresServices(t *testing.T) {
	cfg := common.NewDefaultConfig()
	a := New(cfg, common.NewSilentLogger(), tcommon.NewMemStorage(), tcommon.NewMemImageStore(), tcommon.NewMockVisionClient())

	assert.NotNil(t, a.AnalysisService)
	assert.NotNil(t, a.HistoryService)
	assert.NotNil(t, a.CatalogService)
	assert.NotNil(t, a.GuidelineService)
	assert.NotNil(t, a.Flows)
	assert.False(t, a.StartupTime.IsZero())

	g := a.ChartGeometry()
	assert.Equal(t, 600, g.Width)
	assert.Equal(t, 0.5, g.InnerRatio)

	a.Close()
	assert.Nil(t, a.Storage)
}

func TestNewVisionClient_NoKeyIsUnavailable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PAGODA_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	v := newVisionClient(context.Background(), common.NewDefaultConfig(), common.NewSilentLogger())
	_, err := v.AnalyzeImage(context.Background(), []byte("x"), "image/png")
	assert.True(t, errors.Is(err, interfaces.ErrUnavailable))
	_, err = v.Summarize(context.Background(), "x")
	assert.True(t, errors.Is(err, interfaces.ErrUnavailable))
}

type slowVision struct{}

func (slowVision) AnalyzeImage(ctx context.Context, _ []byte, _ string) (*models.VisionReport, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowVision) Summarize(ctx context.Context, _ string) (*models.Report, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutVision(t *testing.T) {
	v := &timeoutVision{next: slowVision{}, timeout: 20 * time.Millisecond}

	_, err := v.AnalyzeImage(context.Background(), nil, "")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	_, err = v.Summarize(context.Background(), "")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewApp_WithSurrealDB(t *testing.T) {
	sc := tcommon.StartSurrealDB(t)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "pagoda.toml")
	content := fmt.Sprintf(`
[storage]
address = %q
namespace = "pagoda_test"
database = "app_%d"

[images]
backend = "file"
path = %q

[logging]
level = "error"
`, sc.Address(), time.Now().UnixNano()%100000, filepath.Join(dir, "uploads"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	a, err := NewApp(context.Background(), configPath)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Storage)
	assert.NotNil(t, a.Images)
	assert.NotNil(t, a.Vision)

	_, err = a.HistoryService.History(context.Background(), "nobody", 5)
	assert.NoError(t, err)
}

// Package app wires configuration, storage, clients and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/pagoda/internal/chart"
	"github.com/bobmcallan/pagoda/internal/clients/gemini"
	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/flow"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/bobmcallan/pagoda/internal/services/analysis"
	"github.com/bobmcallan/pagoda/internal/services/catalog"
	"github.com/bobmcallan/pagoda/internal/services/guidelines"
	"github.com/bobmcallan/pagoda/internal/services/history"
	"github.com/bobmcallan/pagoda/internal/storage/blob"
	"github.com/bobmcallan/pagoda/internal/storage/surrealdb"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Images           interfaces.ImageStore
	Vision           interfaces.VisionClient
	Flows            *flow.Registry
	AnalysisService  interfaces.AnalysisService
	HistoryService   interfaces.HistoryService
	CatalogService   interfaces.CatalogService
	GuidelineService interfaces.GuidelineService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, PAGODA_CONFIG,
// pagoda.toml next to the binary, then config/pagoda.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("PAGODA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "pagoda.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/pagoda.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and connects every dependency.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()
	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}
	if config.Images.Path != "" && !filepath.IsAbs(config.Images.Path) {
		config.Images.Path = filepath.Join(binDir, config.Images.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	images, err := blob.NewImageStore(ctx, logger, config.Images)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	vision := newVisionClient(ctx, config, logger)

	a := New(config, logger, storageManager, images, vision)
	a.StartupTime = startupStart

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// New builds the services over already constructed dependencies.
func New(config *common.Config, logger *common.Logger, storage interfaces.StorageManager, images interfaces.ImageStore, vision interfaces.VisionClient) *App {
	flows := flow.NewRegistry()
	return &App{
		Config:  config,
		Logger:  logger,
		Storage: storage,
		Images:  images,
		Vision:  vision,
		Flows:   flows,
		AnalysisService: analysis.NewService(storage, images, vision, flows, logger,
			analysis.WithMaxImageBytes(config.Images.MaxBytes()),
		),
		HistoryService:   history.NewService(storage, images, logger),
		CatalogService:   catalog.NewService(storage, logger),
		GuidelineService: guidelines.NewService(storage, logger),
		StartupTime:      time.Now(),
	}
}

// newVisionClient returns the Gemini client, or a stand-in that fails every
// call with ErrUnavailable when no API key is configured.
func newVisionClient(ctx context.Context, config *common.Config, logger *common.Logger) interfaces.VisionClient {
	key, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - photo analysis will be unavailable")
		return unavailableVision{}
	}

	client, err := gemini.NewClient(ctx, key,
		gemini.WithLogger(logger),
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithRateLimit(config.Clients.Gemini.RateLimit),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		return unavailableVision{}
	}
	return &timeoutVision{next: client, timeout: config.Clients.Gemini.GetTimeout()}
}

// ChartGeometry returns the configured default donut geometry.
func (a *App) ChartGeometry() chart.Geometry {
	return chart.Geometry{
		Width:      a.Config.Chart.Size,
		Height:     a.Config.Chart.Size,
		InnerRatio: a.Config.Chart.InnerRatio,
		OuterRatio: a.Config.Chart.OuterRatio,
	}
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

type unavailableVision struct{}

func (unavailableVision) AnalyzeImage(context.Context, []byte, string) (*models.VisionReport, error) {
	return nil, fmt.Errorf("%w: gemini API key not configured", interfaces.ErrUnavailable)
}

func (unavailableVision) Summarize(context.Context, string) (*models.Report, error) {
	return nil, fmt.Errorf("%w: gemini API key not configured", interfaces.ErrUnavailable)
}

// timeoutVision bounds each model call by the configured timeout.
type timeoutVision struct {
	next    interfaces.VisionClient
	timeout time.Duration
}

func (v *timeoutVision) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}

func (v *timeoutVision) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*models.VisionReport, error) {
	ctx, cancel := v.bound(ctx)
	defer cancel()
	return v.next.AnalyzeImage(ctx, image, mimeType)
}

func (v *timeoutVision) Summarize(ctx context.Context, visionReport string) (*models.Report, error) {
	ctx, cancel := v.bound(ctx)
	defer cancel()
	return v.next.Summarize(ctx, visionReport)
}

package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// pagodaGlyph is drawn one tier per line, narrowest at the top, in the
// tier colours of the chart.
var pagodaGlyph = []struct {
	color string
	line  string
}{
	{banner.ColorYellow, `            /\`},
	{banner.ColorRed, `           /__\            dairy, bean & nut`},
	{banner.ColorRed, `          /____\           meat & egg`},
	{banner.ColorGreen, `         /______\          vegetable & fruit`},
	{banner.ColorYellow, `        /________\         cereal & tuber`},
	{banner.ColorWhite, `       /__________\        P A G O D A`},
}

// bannerRows lists what the running server was configured with. Secrets are
// reported as present or missing, never printed.
func bannerRows(config *Config) [][2]string {
	images := config.Images.Backend
	switch images {
	case "s3":
		images = fmt.Sprintf("s3://%s/%s", config.Images.Bucket, strings.Trim(config.Images.Prefix, "/"))
		if config.Images.Endpoint != "" {
			images += " via " + config.Images.Endpoint
		}
	case "", "file":
		images = "file " + config.Images.Path
	}

	gemini := config.Clients.Gemini.Model
	if config.Clients.Gemini.APIKey == "" {
		gemini += " (api key missing)"
	}

	return [][2]string{
		{"version", fmt.Sprintf("%s (build %s, %s)", GetVersion(), GetBuild(), GetGitCommit())},
		{"environment", config.Environment},
		{"listening", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)},
		{"surrealdb", fmt.Sprintf("%s %s/%s", config.Storage.Address, config.Storage.Namespace, config.Storage.Database)},
		{"photos", images},
		{"upload limit", fmt.Sprintf("%d MB", config.Images.MaxBytes()>>20)},
		{"vision model", gemini},
		{"chart", fmt.Sprintf("%dpx ring %.2f-%.2f", config.Chart.Size, config.Chart.InnerRatio, config.Chart.OuterRatio)},
	}
}

// PrintBanner writes the startup banner to stderr and logs the same facts.
func PrintBanner(config *Config, logger *Logger) {
	writeBanner(os.Stderr, config)

	rows := bannerRows(config)
	event := logger.Info()
	for _, row := range rows {
		event = event.Str(strings.ReplaceAll(row[0], " ", "_"), row[1])
	}
	event.Msg("Pagoda server started")
}

func writeBanner(w io.Writer, config *Config) {
	rule := banner.ColorCyan + strings.Repeat("─", 60) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", rule)
	for _, g := range pagodaGlyph {
		fmt.Fprintf(w, "%s%s%s%s\n", banner.ColorBold, g.color, g.line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n", rule)
	for _, row := range bannerRows(config) {
		fmt.Fprintf(w, "  %s%-13s%s %s\n", banner.ColorCyan, row[0], banner.ColorReset, row[1])
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}

// PrintShutdownBanner announces a graceful stop.
func PrintShutdownBanner(logger *Logger) {
	fmt.Fprintf(os.Stderr, "\n%s%s  pagoda: draining requests and closing storage%s\n\n",
		banner.ColorBold, banner.ColorYellow, banner.ColorReset)
	logger.Info().Msg("Pagoda server shutting down")
}

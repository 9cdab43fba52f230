package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/pagoda/internal/chart"
	"github.com/bobmcallan/pagoda/internal/clients/gemini"
	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/drilldown"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/bobmcallan/pagoda/internal/pyramid"
	"github.com/bobmcallan/pagoda/internal/services/guidelines"
)

type rootOptions struct {
	configPath string
	size       int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pagoda",
		Short:         "Food pagoda nutrition charts from dish reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: PAGODA_CONFIG)")
	root.PersistentFlags().IntVar(&opts.size, "size", 0, "Chart size in pixels (default: config chart.size)")

	root.AddCommand(
		newSlicesCmd(opts),
		newRenderCmd(opts),
		newHitCmd(opts),
		newAnalyzeCmd(opts),
		newGuidelinesCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) config() (*common.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("PAGODA_CONFIG")
	}
	return common.LoadConfig(path)
}

func (o *rootOptions) geometry() (chart.Geometry, error) {
	cfg, err := o.config()
	if err != nil {
		return chart.Geometry{}, err
	}
	g := chart.Geometry{
		Width:      cfg.Chart.Size,
		Height:     cfg.Chart.Size,
		InnerRatio: cfg.Chart.InnerRatio,
		OuterRatio: cfg.Chart.OuterRatio,
	}
	if o.size > 0 {
		g = g.WithSize(o.size)
	}
	return g, nil
}

// readReport loads a report from a file, or stdin when path is "-".
func readReport(cmd *cobra.Command, path string) (*models.Report, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return models.ParseReport(string(data))
}

func newSlicesCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "slices <report.json|->",
		Short: "Print the donut slices for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readReport(cmd, args[0])
			if err != nil {
				return err
			}
			slices, ok := pyramid.Derive(r.Pyramid())
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{"has_chart": ok, "slices": slices})
			}
			if !ok {
				fmt.Fprintln(out, "no chartable categories")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tCATEGORY\tGRAMS\tSTART\tEND\tSHARE")
			for _, s := range slices {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f%%\n",
					s.Category.Level(), s.Label, s.Value, s.StartAngle, s.EndAngle, s.Percent())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "render <report.json|->",
		Short: "Render the donut chart for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readReport(cmd, args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			f, err := chart.ParseFormat(format)
			if err != nil {
				return err
			}
			g, err := opts.geometry()
			if err != nil {
				return err
			}

			p := r.Pyramid()
			slices, _ := pyramid.Derive(p)
			data, err := chart.RenderBytes(slices, g, chart.Options{
				Format: f,
				Title:  r.DishName,
				Oil:    p.Oil,
				Salt:   p.Salt,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "png or svg (default: from output extension, else png)")
	return cmd
}

func newHitCmd(opts *rootOptions) *cobra.Command {
	var x, y float64
	cmd := &cobra.Command{
		Use:   "hit <report.json|->",
		Short: "Resolve a click on the chart to a category and its ingredients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readReport(cmd, args[0])
			if err != nil {
				return err
			}
			g, err := opts.geometry()
			if err != nil {
				return err
			}

			slices, _ := pyramid.Derive(r.Pyramid())
			out := cmd.OutOrStdout()
			c, ok := g.Hit(slices, x, y)
			if !ok {
				fmt.Fprintln(out, "miss")
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", c.Level(), c.Label())
			for _, name := range drilldown.Ingredients(r, c) {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "Click x in pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "Click y in pixels")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "analyze <photo>",
		Short: "Run a dish photo through the vision model and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			key, err := common.ResolveAPIKey("gemini_api_key", cfg.Clients.Gemini.APIKey)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}
			mimeType := http.DetectContentType(image)
			if !strings.HasPrefix(mimeType, "image/") {
				return fmt.Errorf("%s is %s, not an image", args[0], mimeType)
			}

			if timeout <= 0 {
				timeout = cfg.Clients.Gemini.GetTimeout()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := gemini.NewClient(ctx, key,
				gemini.WithModel(cfg.Clients.Gemini.Model),
				gemini.WithLogger(common.NewLogger(cfg.Logging.Level)),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			vr, err := client.AnalyzeImage(ctx, image, mimeType)
			if err != nil {
				return err
			}
			if !vr.IsValid {
				return fmt.Errorf("photo rejected: %s", vr.Reason)
			}
			report, err := client.Summarize(ctx, vr.Report)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(report)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout (default: clients.gemini.timeout)")
	return cmd
}

func newGuidelinesCmd() *cobra.Command {
	var (
		asJSON  bool
		size    int
		overlap int
	)
	cmd := &cobra.Command{
		Use:   "guidelines <guide.pdf>",
		Short: "Preview how a guideline PDF is split into searchable passages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read PDF: %w", err)
			}
			svc := guidelines.NewService(nil, common.NewSilentLogger(), guidelines.WithChunking(size, overlap))
			chunks, err := svc.Split(filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(chunks)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tPAGE\tRUNES\tSTART")
			for _, c := range chunks {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", c.Seq, c.Page, len([]rune(c.Text)), preview(c.Text, 40))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print passages as JSON")
	cmd.Flags().IntVar(&size, "chunk-size", guidelines.DefaultChunkSize, "Passage size in runes")
	cmd.Flags().IntVar(&overlap, "overlap", guidelines.DefaultChunkOverlap, "Runes repeated between passages")
	return cmd
}

// preview returns the first n runes of s on one line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintf(cmd.OutOrStdout(), "pagoda %s\n", common.GetVersionInfo())
		},
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	forecaster "github.com/aouyang1/go-salesforecaster"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/internal/config"
	"github.com/aouyang1/go-salesforecaster/internal/server"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "salesforecast",
		Short:         "Forecast sales with additive Holt-Winters smoothing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")

	loadConfig := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(cfg.Logging.NewLogger(cmd.ErrOrStderr()))
		return cfg, nil
	}

	rootCmd.AddCommand(forecastCmd(loadConfig))
	rootCmd.AddCommand(serveCmd(loadConfig))
	return rootCmd
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

// forecastCmd runs the pipeline once over a CSV or XLSX file
func forecastCmd(loadConfig configLoader) *cobra.Command {
	var (
		input   string
		sheet   string
		format  string
		plot    string
		horizon int
		period  int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast a sales file with Date and Sales columns",
		Long: `Reads a CSV or XLSX file, fits the smoothing model and prints the forecast with its
band and the expected total. Use "-" to read CSV from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatTable {
				return fmt.Errorf("unknown format %q, expected %s or %s", format, formatJSON, formatTable)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opt := cfg.ForecasterOptions()
			if cmd.Flags().Changed("horizon") {
				opt.Horizon = horizon
			}
			if cmd.Flags().Changed("period") {
				opt.SeasonalPeriod = period
			}

			tbl, err := readTable(cmd.InOrStdin(), input, sheet)
			if err != nil {
				return err
			}

			f, err := forecaster.New(opt)
			if err != nil {
				return err
			}
			res, err := f.Run(tbl)
			if err != nil {
				return err
			}

			if plot != "" {
				if err := writePlot(plot, res); err != nil {
					return err
				}
			}
			return writeResults(cmd.OutOrStdout(), format, res)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV or XLSX sales file, - for stdin")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet name, defaults to the first sheet")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: json or table")
	cmd.Flags().StringVar(&plot, "plot", "", "Write an HTML chart of the forecast to this path")
	cmd.Flags().IntVar(&horizon, "horizon", forecaster.DefaultHorizon, "Number of steps to forecast")
	cmd.Flags().IntVar(&period, "period", 0, "Seasonal period override, 0 selects automatically")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// serveCmd runs the HTTP service until interrupted
func serveCmd(loadConfig configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecast API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			s, err := server.New(cfg, slog.Default())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the configured one")
	return cmd
}

func readTable(stdin io.Reader, input, sheet string) (ingest.Table, error) {
	if input == "-" {
		return ingest.ReadCSV(stdin)
	}

	file, err := os.Open(input)
	if err != nil {
		return ingest.Table{}, fmt.Errorf("unable to open input, %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(input), ".xlsx") {
		return ingest.ReadXLSX(file, sheet)
	}
	return ingest.ReadCSV(file)
}

func writePlot(path string, res *forecaster.Results) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot file, %w", err)
	}
	defer file.Close()
	return forecaster.PlotForecast(file, res)
}

func writeResults(w io.Writer, format string, res *forecaster.Results) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return res.TablePrint(w, "", "  ")
}

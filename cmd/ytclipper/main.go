package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/config"
	"github.com/kikiluvv/ytclipper/internal/logging"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ytclipper",
	Short: "ytclipper - split a YouTube video into randomized titled clips",
	Long: "Downloads a video, cuts it into randomized 30-55 second clips with a title and a subtitle,\n" +
		"and keeps a catalog so clips can be listed and re-trimmed later.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		logging.Init(verbose, cfg.LogLevel)

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ytclipper.yaml or ~/.ytclipper/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clipCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// app bundles the catalog and pipeline shared by every command.
type app struct {
	cfg  *config.Config
	db   *catalog.DB
	pipe *pipeline.Pipeline
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg := config.FromContext(cmd.Context())
	logger := logging.NewLogger()

	db, err := catalog.Open(cfg.DBPath(), logger)
	if err != nil {
		return nil, err
	}

	pipe, err := pipeline.New(logger, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, pipe: pipe}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

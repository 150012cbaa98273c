package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/config"
	"github.com/kikiluvv/ytclipper/internal/gui"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

var (
	outDir   string
	title    string
	subtitle string

	editStart string
	editEnd   string
)

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: output_dir from config)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "title text shown on every clip")
	cmd.Flags().StringVarP(&subtitle, "subtitle", "s", "", "subtitle text shown on every clip")
}

var runCmd = &cobra.Command{
	Use:   "run [youtube url]",
	Short: "Download a video and split it into clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, pipeline.Request{URL: args[0]})
	},
}

var clipCmd = &cobra.Command{
	Use:   "clip [video file]",
	Short: "Split a local video into clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, pipeline.Request{SourcePath: args[0]})
	},
}

func init() {
	addBatchFlags(runCmd)
	addBatchFlags(clipCmd)

	editCmd.Flags().StringVar(&editStart, "start", "", "new start (seconds or HH:MM:SS)")
	editCmd.Flags().StringVar(&editEnd, "end", "", "new end (seconds or HH:MM:SS)")
	editCmd.MarkFlagRequired("start")
	editCmd.MarkFlagRequired("end")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runBatch(cmd *cobra.Command, req pipeline.Request) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req.OutputDir = outDir
	if req.OutputDir == "" {
		req.OutputDir = a.cfg.OutputDir
	}
	req.Annotation = clips.Annotation{Title: title, Subtitle: subtitle}

	job, err := a.pipe.Start(cmd.Context(), req)
	if err != nil {
		return err
	}

	var result []*clips.Clip
	for ev := range job.Events() {
		switch ev.Type {
		case pipeline.EventSource:
			log.Info().
				Str("source", ev.Source.Path).
				Int("seconds", ev.Source.Seconds()).
				Msg("source ready")
		case pipeline.EventClip:
			log.Info().
				Str("clip", filepath.Base(ev.Clip.Path)).
				Int("progress", ev.Progress).
				Msg("clip rendered")
		case pipeline.EventCompleted:
			result = ev.Clips
		case pipeline.EventFailed:
			return ev.Err
		}
	}

	fmt.Printf("job %s\n", job.ID)
	printClips(result)
	return nil
}

var editCmd = &cobra.Command{
	Use:   "edit [clip id]",
	Short: "Re-trim a clip from its original source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := util.ParseTimestamp(editStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := util.ParseTimestamp(editEnd)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		clip, err := a.db.GetClip(ctx, args[0])
		if err != nil {
			return err
		}
		job, err := a.db.GetJob(ctx, clip.JobID)
		if err != nil {
			return err
		}
		src, err := a.pipe.OpenSource(ctx, job.SourcePath)
		if err != nil {
			return err
		}

		if err := a.pipe.Retrim(ctx, clip, src, start, end); err != nil {
			return err
		}
		printClips([]*clips.Clip{clip})
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [job id]",
	Short: "List jobs, or the clips of one job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if len(args) == 1 {
			list, err := a.db.ListClips(ctx, args[0])
			if err != nil {
				return err
			}
			printClips(list)
			return nil
		}

		jobs, err := a.db.ListJobs(ctx, 0)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tPROGRESS\tCREATED\tOUTPUT")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n",
				j.ID, j.Status, j.Progress, j.CreatedAt.Local().Format(time.DateTime), j.OutputDir)
		}
		return tw.Flush()
	},
}

func printClips(list []*clips.Clip) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSTART\tEND")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Path, util.FormatSeconds(c.Start), util.FormatSeconds(c.End))
	}
	tw.Flush()
}

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the desktop editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		gui.Run(a.pipe, log.Logger)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return yaml.NewEncoder(os.Stdout).Encode(config.FromContext(cmd.Context()))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "ytclipper.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.FromContext(cmd.Context()).Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

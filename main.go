package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/interview-pipeline/config"
	"github.com/maastricht-university/interview-pipeline/orchestrator"
	"github.com/maastricht-university/interview-pipeline/output"
)

func main() {
	log := logrus.New()

	var asrURL string
	var outputs string

	root := &cobra.Command{
		Use:           "interview-pipeline",
		Short:         "Transcribe an interview recording and assign speaker roles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	transcribe := &cobra.Command{
		Use:   "transcribe <audio.wav>",
		Short: "Run the full pipeline on one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load()
			if err != nil {
				return err
			}
			if asrURL != "" {
				conf.Recognition.URL = asrURL
			}
			if outputs != "" {
				conf.Outputs = outputs
			}
			if lvl, err := logrus.ParseLevel(conf.LogLevel); err == nil {
				log.SetLevel(lvl)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := orchestrator.NewPipeline(conf, output.NewDirSink(conf.Outputs), log)
			return p.Run(ctx, args[0])
		},
	}
	transcribe.Flags().StringVar(&asrURL, "asr-url", "", "transcription service base URL (overrides config)")
	transcribe.Flags().StringVar(&outputs, "outputs", "", "session output directory root (overrides config)")
	root.AddCommand(transcribe)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

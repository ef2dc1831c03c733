package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/felixbrock/chartlint/internal/app"
	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/felixbrock/chartlint/internal/persistence"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func inference(ctx context.Context, config app.Config) (app.InferenceRepo, error) {
	switch config.Provider {
	case "openai":
		return persistence.NewOAIRepo(config.OAIApiKey, config.OAIBaseUrl, &http.Client{Timeout: config.InferenceTimeout}), nil
	case "gemini":
		return persistence.NewGenAIRepo(ctx, config.GeminiApiKey, config.GeminiBaseUrl, &http.Client{Timeout: config.InferenceTimeout})
	default:
		return nil, fmt.Errorf("unknown inference provider %q", config.Provider)
	}
}

func linter(ctx context.Context, config app.Config) (app.Linter, error) {
	repo, err := inference(ctx, config)
	if err != nil {
		return app.Linter{}, err
	}

	return app.Linter{
		Inference: repo,
		Catalog:   persistence.CatalogRepo{Path: config.CatalogPath},
		Classify:  config.Classify,
		Critique:  config.Critique,
	}, nil
}

func serveCmd(config *app.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart linter web front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := linter(ctx, *config)
			if err != nil {
				return err
			}

			a := app.App{
				Linter:    l,
				ImageRepo: persistence.ImageRepo{Dir: config.ImageDir, UrlPrefix: "/static/images"},
				Config:    *config,
			}

			return a.Start(ctx)
		},
	}

	return cmd
}

func checkCmd(config *app.Config) *cobra.Command {
	var codePath, imagePath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lint one chart given as source code or an image",
		Example: `  chartlint check --code plot.py
  chartlint check --image chart.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if codePath != "" && imagePath != "" {
				return errors.New(domain.MsgBothInputs)
			}
			if codePath == "" && imagePath == "" {
				return errors.New(domain.MsgNoInput)
			}

			var artifact domain.Artifact
			if codePath != "" {
				content, err := os.ReadFile(codePath)
				if err != nil {
					return err
				}
				artifact = domain.CodeArtifact(strings.TrimSpace(string(content)))
			} else {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return err
				}
				artifact = domain.ImageArtifact(domain.Image{
					Filename: filepath.Base(imagePath),
					MimeType: http.DetectContentType(data),
					Data:     data,
				})
			}

			l, err := linter(cmd.Context(), *config)
			if err != nil {
				return err
			}

			critique, err := l.Lint(cmd.Context(), "", artifact)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Chart type: %s\n\n%s\n", critique.Category, critique.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&codePath, "code", "", "file containing the chart source code")
	cmd.Flags().StringVar(&imagePath, "image", "", "chart image file")
	return cmd
}

func rootCmd() *cobra.Command {
	config := app.LoadConfig()

	root := &cobra.Command{
		Use:           "chartlint",
		Short:         "Critique data visualizations with a multimodal model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&config.Port, "port", "p", config.Port, "port to listen on")
	root.PersistentFlags().StringVar(&config.CatalogPath, "catalog", config.CatalogPath, "rule catalog file (.json or .yaml), embedded catalog when empty")

	serve := serveCmd(&config)
	root.AddCommand(serve, checkCmd(&config))
	root.RunE = serve.RunE

	return root
}

func main() {
	setupLogging()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		os.Exit(1)
	}
}

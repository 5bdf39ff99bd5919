package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vellum/internal"
	pkgconfig "github.com/starford/vellum/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		cfg.Site.Output = out
	}
	return internal.Build(ctx, internal.WithConfig(cfg))
}

func inventory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the JSON result.
	return internal.Inventory(ctx, os.Stdout, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "vellum",
		Usage:  "Markdown site renderer with handlebars layouts, live reload and an image inventory",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the site and JSON API with live reload",
				Action: serve,
			},
			{
				Name:   "build",
				Usage:  "Render every page into the output directory",
				Action: build,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (overrides site.output)",
					},
				},
			},
			{
				Name:   "inventory",
				Usage:  "Print the image inventory as JSON",
				Action: inventory,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

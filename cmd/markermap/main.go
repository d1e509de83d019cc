package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"markermap/internal/config"
	"markermap/internal/geom"
	"markermap/internal/imagecache"
	"markermap/internal/layer"
	"markermap/internal/logging"
	"markermap/internal/tui"
)

func main() {
	configDir := os.Getenv("MARKERMAP_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := run(configDir, path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir, path string) error {
	if err := config.Load(configDir); err != nil {
		return err
	}
	cfg, err := config.Get()
	if err != nil {
		return err
	}

	log, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info().Str("logLevel", cfg.LogLevel).Msg("markermap starting")

	opts := tui.Options{
		Layer: []layer.Option{
			layer.WithPane(cfg.Layer.Pane),
			layer.WithBranching(cfg.Index.MinChildren, cfg.Index.MaxChildren),
			layer.WithCompactRatio(cfg.Index.CompactRatio),
			layer.WithMaxConcurrentLoads(cfg.Images.MaxConcurrent),
		},
		Icon: layer.Icon{
			URL:    cfg.Icons.Default,
			Size:   geom.Point{X: cfg.Icons.Width, Y: cfg.Icons.Height},
			Anchor: geom.Point{X: cfg.Icons.AnchorX, Y: cfg.Icons.AnchorY},
		},
		Log: log,
	}
	if cfg.Images.Fallback != "" {
		img, err := imagecache.DefaultLoader().Load(context.Background(), cfg.Images.Fallback)
		if err != nil {
			return fmt.Errorf("load fallback icon: %w", err)
		}
		opts.Layer = append(opts.Layer, layer.WithFallback(img))
	}

	var m tui.Model
	if path != "" {
		m = tui.NewWithPath(opts, path)
	} else {
		m = tui.New(opts)
	}
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.Error().Err(err).Msg("program exited")
		return err
	}
	return nil
}

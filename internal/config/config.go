package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "markermap.yaml"

// LayerConfig holds marker layer placement.
type LayerConfig struct {
	Pane string `mapstructure:"pane"`
}

// IndexConfig holds the R-tree settings of the marker layer.
type IndexConfig struct {
	MinChildren  int     `mapstructure:"minChildren"`
	MaxChildren  int     `mapstructure:"maxChildren"`
	CompactRatio float64 `mapstructure:"compactRatio"`
}

// ImagesConfig holds icon loading settings.
type ImagesConfig struct {
	MaxConcurrent int64 `mapstructure:"maxConcurrent"`
	// Fallback is an icon URL painted for icons that fail to load.
	Fallback string `mapstructure:"fallback"`
}

// IconConfig describes the icon given to markers whose source has none.
type IconConfig struct {
	Default string  `mapstructure:"default"`
	Width   float64 `mapstructure:"width"`
	Height  float64 `mapstructure:"height"`
	AnchorX float64 `mapstructure:"anchorX"`
	AnchorY float64 `mapstructure:"anchorY"`
}

// Settings is the full configuration.
type Settings struct {
	LogLevel string       `mapstructure:"logLevel"`
	LogFile  string       `mapstructure:"logFile"`
	Layer    LayerConfig  `mapstructure:"layer"`
	Index    IndexConfig  `mapstructure:"index"`
	Images   ImagesConfig `mapstructure:"images"`
	Icons    IconConfig   `mapstructure:"icons"`
}

// Load sets default values and reads the optional config file from
// configDir. MARKERMAP_* environment variables override both.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "markermap.log")

	viper.SetDefault("layer.pane", "overlayPane")

	viper.SetDefault("index.minChildren", 25)
	viper.SetDefault("index.maxChildren", 50)
	viper.SetDefault("index.compactRatio", 0.1)

	viper.SetDefault("images.maxConcurrent", 8)
	viper.SetDefault("images.fallback", "")

	viper.SetDefault("icons.default", "builtin:red")
	viper.SetDefault("icons.width", 8)
	viper.SetDefault("icons.height", 8)
	viper.SetDefault("icons.anchorX", 4)
	viper.SetDefault("icons.anchorY", 8)

	viper.SetEnvPrefix("markermap")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Get returns the loaded settings.
func Get() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

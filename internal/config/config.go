package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the working directory
// when no explicit path is given.
const FileName = configName + ".toml"

const configName = "asset_config"

// Config mirrors asset_config.toml. Every key is optional; any key not
// listed here is rejected.
type Config struct {
	FileName             string   `mapstructure:"file-name"`
	Compression          string   `mapstructure:"compression"`
	Obfuscate            bool     `mapstructure:"obfuscate"`
	BundleForDebugBuilds bool     `mapstructure:"bundle-for-debug-builds"`
	OutDir               string   `mapstructure:"out-dir"`
	Exclude              []string `mapstructure:"exclude"`

	compression bundle.Compression
}

// Load reads configuration from cfgFile, or from asset_config.toml in the
// working directory when cfgFile is empty. A missing default file yields
// the defaults; a missing explicit file is an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := bundle.DefaultConfig()
	v.SetDefault("file-name", defaults.BaseName)
	v.SetDefault("compression", defaults.Compression.String())
	v.SetDefault("obfuscate", false)
	v.SetDefault("bundle-for-debug-builds", false)
	v.SetDefault("out-dir", defaults.OutDir)
	v.SetDefault("exclude", []string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("toml")
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("toml")
	}

	// Read config file (optional unless explicit)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := checkKeyCase(v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg, strictDecoding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// strictDecoding turns off mapstructure's weak typing so "yes" or 1 is not
// accepted where a bool is expected. Viper's default hooks are dropped too;
// they would split a bare string into the exclude list.
func strictDecoding(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = false
	dc.DecodeHook = nil
}

// checkKeyCase rejects keys that name a setting in the wrong case. Viper
// lowercases keys before decoding, so "FILE-NAME" would otherwise pass.
func checkKeyCase(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if key != strings.ToLower(key) {
			return fmt.Errorf("unknown configuration key %q", key)
		}
	}
	return nil
}

func (c *Config) validate() error {
	compression, err := bundle.ParseCompression(c.Compression)
	if err != nil {
		return err
	}
	c.compression = compression

	return c.Bundle("").Validate()
}

// ShouldBundle reports whether a bundle is produced for this build.
// Non-release builds are skipped unless bundle-for-debug-builds is set.
func (c *Config) ShouldBundle(release bool) bool {
	return release || c.BundleForDebugBuilds
}

// Bundle converts the file configuration to the runtime bundle.Config with
// searchDir as the resolver's lookup directory.
func (c *Config) Bundle(searchDir string) bundle.Config {
	return bundle.Config{
		BaseName:    c.FileName,
		Compression: c.compression,
		Obfuscate:   c.Obfuscate,
		SearchDir:   searchDir,
		OutDir:      c.OutDir,
	}
}

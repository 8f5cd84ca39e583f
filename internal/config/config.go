// ABOUTME: Host configuration loaded with viper
// ABOUTME: YAML file, BARESIP_* environment and bound flags resolve into Settings
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings is the resolved host configuration
type Settings struct {
	Audio   AudioSettings   `mapstructure:"audio"`
	Queue   QueueSettings   `mapstructure:"queue"`
	Log     LogSettings     `mapstructure:"log"`
	Metrics MetricsSettings `mapstructure:"metrics"`
	NoTUI   bool            `mapstructure:"no_tui"`
}

type AudioSettings struct {
	SampleRate int    `mapstructure:"srate"`
	Channels   int    `mapstructure:"channels"`
	Ptime      int    `mapstructure:"ptime"`
	Format     string `mapstructure:"format"`
	Source     string `mapstructure:"source"` // capture descriptor
	Player     string `mapstructure:"player"` // playback descriptor
	Immediate  bool   `mapstructure:"immediate"`
	Realtime   bool   `mapstructure:"realtime"` // pace file sources to the audio clock
}

type QueueSettings struct {
	Policy    string `mapstructure:"policy"`
	MaxFrames int    `mapstructure:"max_frames"`
}

type LogSettings struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MetricsSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// EnvPrefix prefixes environment overrides, e.g. BARESIP_AUDIO_PTIME
const EnvPrefix = "BARESIP"

// SetDefaults installs the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.srate", audio.DefaultSampleRate)
	v.SetDefault("audio.channels", audio.DefaultChannels)
	v.SetDefault("audio.ptime", audio.DefaultPtime)
	v.SetDefault("audio.format", "S16LE")
	v.SetDefault("audio.source", "tone")
	v.SetDefault("audio.player", "null")
	v.SetDefault("audio.immediate", false)
	v.SetDefault("audio.realtime", false)

	v.SetDefault("queue.policy", "drop-oldest")
	v.SetDefault("queue.max_frames", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "baresip-gst.log")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9464")

	v.SetDefault("no_tui", false)
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file (path, or config.yaml in the working
// directory and $HOME/.config/baresip-gst), binds flags and validates.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/baresip-gst")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// flagKeys maps CLI flag names to config keys
var flagKeys = map[string]string{
	"srate":          "audio.srate",
	"channels":       "audio.channels",
	"ptime":          "audio.ptime",
	"format":         "audio.format",
	"source":         "audio.source",
	"player":         "audio.player",
	"immediate":      "audio.immediate",
	"realtime":       "audio.realtime",
	"queue-policy":   "queue.policy",
	"queue-frames":   "queue.max_frames",
	"log-level":      "log.level",
	"log-json":       "log.json",
	"log-file":       "log.file",
	"metrics":        "metrics.enabled",
	"metrics-listen": "metrics.listen",
	"no-tui":         "no_tui",
}

// AddFlags defines the CLI flags that BindFlags understands
func AddFlags(flags *pflag.FlagSet) {
	flags.Int("srate", audio.DefaultSampleRate, "Sample rate in Hz")
	flags.Int("channels", audio.DefaultChannels, "Channel count")
	flags.Int("ptime", audio.DefaultPtime, "Frame duration in milliseconds")
	flags.String("format", "S16LE", "Sample format (only S16LE is supported)")
	flags.String("source", "tone", "Capture descriptor: tone[:freq], file:<path>, device[:name], inter:<channel>")
	flags.String("player", "null", "Playback descriptor: oto, malgo[:name], file:<path>, null, inter:<channel>")
	flags.Bool("immediate", false, "Hand out partial capture frames padded with silence")
	flags.Bool("realtime", false, "Pace file sources to the audio clock")
	flags.String("queue-policy", "drop-oldest", "Queue overflow policy: drop-oldest or reject-write")
	flags.Int("queue-frames", 0, "Capture queue cap in frames (0 = one second)")
	flags.String("log-level", "info", "Log level")
	flags.Bool("log-json", false, "Log as JSON")
	flags.String("log-file", "baresip-gst.log", "Log file path")
	flags.Bool("metrics", false, "Serve Prometheus metrics")
	flags.String("metrics-listen", ":9464", "Metrics listen address")
	flags.Bool("no-tui", false, "Disable TUI, stream logs instead")
}

// BindFlags binds every known flag present in flags to its config key
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks the settings
func (s *Settings) Validate() error {
	p, err := s.Params()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := aubuf.ParsePolicy(s.Queue.Policy); err != nil {
		return err
	}
	if s.Queue.MaxFrames < 0 {
		return fmt.Errorf("queue.max_frames must not be negative")
	}
	return nil
}

// Params converts the audio section to stream parameters
func (s *Settings) Params() (audio.Params, error) {
	format, err := audio.ParseSampleFormat(s.Audio.Format)
	if err != nil {
		return audio.Params{}, err
	}
	return audio.Params{
		SampleRate: s.Audio.SampleRate,
		Channels:   s.Audio.Channels,
		Ptime:      s.Audio.Ptime,
		Format:     format,
	}.WithDefaults(), nil
}

// QueueConfig converts the queue section for a stream with params p
func (s *Settings) QueueConfig(p audio.Params) aubuf.Config {
	policy, _ := aubuf.ParsePolicy(s.Queue.Policy)
	cfg := aubuf.Config{Params: p, Policy: policy}
	if s.Queue.MaxFrames > 0 {
		cfg.MaxBytes = s.Queue.MaxFrames * p.FrameBytes()
	}
	return cfg
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kafka2i/kafka2i/internal/logging"
	"github.com/kafka2i/kafka2i/internal/types"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".config/kafka2i"
	configFileName = "config.yaml"
)

// ConfigError reports an invalid or incomplete configuration. It is fatal and
// returned before the UI starts.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// File mirrors the YAML configuration file. Durations use time.ParseDuration
// syntax.
type File struct {
	BootstrapServers []string `yaml:"bootstrap_servers"`
	ClientID         string   `yaml:"client_id"`
	LogFile          string   `yaml:"log_file"`
	LogLevel         string   `yaml:"log_level"`
	Theme            string   `yaml:"theme"`
	Clipboard        *bool    `yaml:"clipboard"`
	RefreshInterval  string   `yaml:"refresh_interval"`
	StatsInterval    string   `yaml:"stats_interval"`
	Timeout          string   `yaml:"timeout"`
	PollTimeout      string   `yaml:"poll_timeout"`
	WarmupTimeout    string   `yaml:"warmup_timeout"`
	ProduceTimeout   string   `yaml:"produce_timeout"`
}

// Defaults returns the parameters used when neither file nor flags set a value.
func Defaults() types.Params {
	return types.Params{
		ClientID:        "kafka2i-" + uuid.NewString(),
		LogFile:         "kafka2i.log",
		LogLevel:        "info",
		Theme:           "mocha",
		Clipboard:       true,
		RefreshInterval: 30 * time.Second,
		StatsInterval:   5 * time.Second,
		Timeout:         30 * time.Second,
		PollTimeout:     5 * time.Second,
		WarmupTimeout:   500 * time.Millisecond,
		ProduceTimeout:  5 * time.Second,
	}
}

// DefaultPath returns ~/.config/kafka2i/config.yaml
func DefaultPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, configFileName), nil
}

// LoadFile reads a config file. A missing file is not an error unless
// required is set (the path was given explicitly).
func LoadFile(path string, required bool) (File, error) {
	var f File

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return f, nil
		}
		return f, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	return f, nil
}

// Apply overlays file values onto params. Values whose flag was set explicitly
// on the command line are left untouched.
func Apply(params *types.Params, f File, flagChanged func(name string) bool) error {
	keep := func(name string) bool {
		return flagChanged != nil && flagChanged(name)
	}

	if len(f.BootstrapServers) > 0 && !keep("bootstrap-servers") {
		params.BootstrapServers = f.BootstrapServers
	}
	if f.ClientID != "" && !keep("client-id") {
		params.ClientID = f.ClientID
	}
	if f.LogFile != "" && !keep("log-file") {
		params.LogFile = f.LogFile
	}
	if f.LogLevel != "" && !keep("log-level") {
		params.LogLevel = f.LogLevel
	}
	if f.Theme != "" && !keep("theme") {
		params.Theme = f.Theme
	}
	if f.Clipboard != nil && !keep("no-clipboard") {
		params.Clipboard = *f.Clipboard
	}

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"refresh-interval", f.RefreshInterval, &params.RefreshInterval},
		{"stats-interval", f.StatsInterval, &params.StatsInterval},
		{"timeout", f.Timeout, &params.Timeout},
		{"poll-timeout", f.PollTimeout, &params.PollTimeout},
		{"warmup-timeout", f.WarmupTimeout, &params.WarmupTimeout},
		{"produce-timeout", f.ProduceTimeout, &params.ProduceTimeout},
	}
	for _, d := range durations {
		if d.value == "" || keep(d.flag) {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return &ConfigError{Field: strings.ReplaceAll(d.flag, "-", "_"), Message: err.Error()}
		}
		*d.dst = parsed
	}

	return nil
}

// Validate checks the parameters required to start the browser.
func Validate(params *types.Params) error {
	servers := params.BootstrapServers[:0:0]
	for _, s := range params.BootstrapServers {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return &ConfigError{Field: "bootstrap_servers", Message: "bootstrap servers cannot be empty"}
	}
	params.BootstrapServers = servers

	if _, err := logging.ParseLevel(params.LogLevel); err != nil {
		return &ConfigError{Field: "log_level", Message: err.Error()}
	}

	positive := []struct {
		field string
		value time.Duration
	}{
		{"refresh_interval", params.RefreshInterval},
		{"stats_interval", params.StatsInterval},
		{"timeout", params.Timeout},
		{"warmup_timeout", params.WarmupTimeout},
		{"produce_timeout", params.ProduceTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &ConfigError{Field: p.field, Message: "must be greater than zero"}
		}
	}
	if params.PollTimeout < 0 {
		return &ConfigError{Field: "poll_timeout", Message: "must not be negative"}
	}

	return nil
}

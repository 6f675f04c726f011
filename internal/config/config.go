package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/densky-dev/densky/internal/errors"
)

const (
	// DefaultRoutes is the routes directory relative to the project.
	DefaultRoutes = "src/routes"

	// DefaultOutput is the build output directory relative to the project.
	DefaultOutput = ".densky"

	// DefaultHTTPDir is the subdirectory of the output holding dispatchers.
	DefaultHTTPDir = "http"

	// DefaultExtension is the route file extension.
	DefaultExtension = ".ts"

	// DefaultPort is the inspection server port in dev mode.
	DefaultPort = 4400

	// DefaultHost is the inspection server host in dev mode.
	DefaultHost = "localhost"

	// DefaultDebounce is how long dev mode waits for file events to settle.
	DefaultDebounce = 100 * time.Millisecond
)

// FileNames are the config files looked up in a project, in order.
var FileNames = []string{"densky.json", "densky.yaml", "densky.yml"}

// Config is the densky project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Routes RoutesConfig `json:"routes,omitempty" yaml:"routes,omitempty"`
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
	Dev    DevConfig    `json:"dev,omitempty" yaml:"dev,omitempty"`
	Log    LogConfig    `json:"log,omitempty" yaml:"log,omitempty"`

	// Runtime is a module every dispatcher imports as __runtime.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	configPath string
	root       string
}

// RoutesConfig controls route discovery.
type RoutesConfig struct {
	// Dir is the routes directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Extension of route files, with the leading dot.
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`

	// Pattern overrides the discovery glob, relative to Dir.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// OutputConfig controls where artifacts go.
type OutputConfig struct {
	// Dir is the local output directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// HTTPDir is the subdirectory of Dir that holds the dispatchers.
	HTTPDir string `json:"httpDir,omitempty" yaml:"httpDir,omitempty"`

	// Clean removes stale artifacts before writing a build.
	Clean bool `json:"clean,omitempty" yaml:"clean,omitempty"`

	// S3 uploads artifacts to a bucket instead of writing them locally.
	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config configures the S3 artifact sink.
type S3Config struct {
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	UsePathStyle bool `json:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty"`
}

// DevConfig contains dev mode settings.
type DevConfig struct {
	// Host and Port of the inspection server.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Debounce is a duration string such as "150ms".
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	// Ignore contains glob patterns, relative to the routes directory,
	// whose changes never trigger a rebuild.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Routes: RoutesConfig{
			Dir:       DefaultRoutes,
			Extension: DefaultExtension,
		},
		Output: OutputConfig{
			Dir:     DefaultOutput,
			HTTPDir: DefaultHTTPDir,
		},
		Dev: DevConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Debounce: DefaultDebounce.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the first config file of FileNames found in dir.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("E121").
			WithDetail("No densky.json or densky.yaml found in " + dir)
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml
// are YAML, everything else is JSON. ${VAR} and ${VAR:-default} are
// expanded from the environment before parsing.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	content := substituteEnvVars(string(data))

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(content), cfg)
	default:
		err = json.Unmarshal([]byte(content), cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithLocation(path, 0, 0)
	}

	cfg.configPath = path
	cfg.root = filepath.Dir(path)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config of the project at dir. A project without
// a config file gets the defaults rooted at dir.
func LoadOrDefault(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New("E112").Wrap(err)
	}
	if _, ok := find(abs); ok {
		return Load(abs)
	}
	cfg := New()
	cfg.root = abs
	return cfg, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root paths are resolved against.
func (c *Config) Dir() string {
	return c.root
}

// SetDir roots the config at dir.
func (c *Config) SetDir(dir string) {
	c.root = dir
}

func (c *Config) applyDefaults() {
	if c.Routes.Dir == "" {
		c.Routes.Dir = DefaultRoutes
	}
	if c.Routes.Extension == "" {
		c.Routes.Extension = DefaultExtension
	}
	if !strings.HasPrefix(c.Routes.Extension, ".") {
		c.Routes.Extension = "." + c.Routes.Extension
	}

	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutput
	}
	if c.Output.HTTPDir == "" {
		c.Output.HTTPDir = DefaultHTTPDir
	}

	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Debounce == "" {
		c.Dev.Debounce = DefaultDebounce.String()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E122").
			WithMessage("Invalid dev.port %d", c.Dev.Port).
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Dev.Debounce); err != nil {
		return errors.New("E122").
			WithMessage("Invalid dev.debounce %q", c.Dev.Debounce).
			WithSuggestion(`Use a duration such as "100ms"`)
	}
	if filepath.Clean(c.Routes.Dir) == filepath.Clean(c.Output.Dir) {
		return errors.New("E122").
			WithMessage("routes.dir and output.dir are both %q", c.Routes.Dir).
			WithDetail("Generated dispatchers would be discovered as routes on the next build.")
	}
	if c.Output.S3 != nil && c.Output.S3.Bucket == "" {
		return errors.New("E122").
			WithMessage("output.s3 has no bucket")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E122").
			WithMessage("Invalid log.level %q", c.Log.Level).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E122").
			WithMessage("Invalid log.format %q", c.Log.Format).
			WithSuggestion(`Use "text" or "json"`)
	}
	return nil
}

// DebounceDuration returns Dev.Debounce parsed, or DefaultDebounce.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Dev.Debounce)
	if err != nil {
		return DefaultDebounce
	}
	return d
}

// DevAddress returns the address string for the inspection server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Routes.Dir)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Output.Dir)
}

// HTTPOutputPath returns the absolute directory dispatchers are written to.
func (c *Config) HTTPOutputPath() string {
	return filepath.Join(c.OutputPath(), c.Output.HTTPDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

func find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No densky.json or densky.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR} and ${VAR:-default}. "$$" escapes a
// literal dollar sign.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(sub[1]); ok {
			return value
		}
		return sub[2]
	})

	return strings.ReplaceAll(result, "\x00", "$")
}

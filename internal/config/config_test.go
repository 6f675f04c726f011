package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Routes.Dir != DefaultRoutes {
		t.Errorf("Routes.Dir = %q, want %q", cfg.Routes.Dir, DefaultRoutes)
	}
	if cfg.Routes.Extension != DefaultExtension {
		t.Errorf("Routes.Extension = %q, want %q", cfg.Routes.Extension, DefaultExtension)
	}
	if cfg.Output.Dir != DefaultOutput {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, DefaultOutput)
	}
	if cfg.Output.HTTPDir != DefaultHTTPDir {
		t.Errorf("Output.HTTPDir = %q, want %q", cfg.Output.HTTPDir, DefaultHTTPDir)
	}
	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.DebounceDuration() != DefaultDebounce {
		t.Errorf("DebounceDuration() = %v, want %v", cfg.DebounceDuration(), DefaultDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); err == nil || !strings.Contains(err.Error(), "E121") {
		t.Errorf("Load(empty dir) error = %v, want E121", err)
	}

	writeConfig(t, tmpDir, "densky.json", `{
  "name": "shop",
  "routes": { "dir": "app/routes", "extension": "js" },
  "output": { "dir": "build" },
  "dev": { "port": 8080, "debounce": "250ms" }
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "shop" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Routes.Extension != ".js" {
		t.Errorf("Routes.Extension = %q, want .js", cfg.Routes.Extension)
	}
	if cfg.Output.HTTPDir != DefaultHTTPDir {
		t.Errorf("Output.HTTPDir = %q, want default", cfg.Output.HTTPDir)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, want default", cfg.Dev.Host)
	}
	if cfg.DebounceDuration() != 250*time.Millisecond {
		t.Errorf("DebounceDuration() = %v", cfg.DebounceDuration())
	}
	if cfg.RoutesPath() != filepath.Join(tmpDir, "app/routes") {
		t.Errorf("RoutesPath() = %q", cfg.RoutesPath())
	}
	if cfg.HTTPOutputPath() != filepath.Join(tmpDir, "build", "http") {
		t.Errorf("HTTPOutputPath() = %q", cfg.HTTPOutputPath())
	}
	if cfg.Path() != filepath.Join(tmpDir, "densky.json") {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DENSKY_TEST_BUCKET", "artifacts")

	writeConfig(t, tmpDir, "densky.yaml", `
routes:
  dir: routes
output:
  s3:
    bucket: ${DENSKY_TEST_BUCKET}
    prefix: ${DENSKY_TEST_PREFIX:-site/}
    usePathStyle: true
dev:
  ignore:
    - "**/*.test.ts"
log:
  level: debug
  format: json
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Routes.Dir != "routes" {
		t.Errorf("Routes.Dir = %q", cfg.Routes.Dir)
	}
	if cfg.Output.S3 == nil {
		t.Fatal("Output.S3 is nil")
	}
	if cfg.Output.S3.Bucket != "artifacts" {
		t.Errorf("S3.Bucket = %q, want artifacts", cfg.Output.S3.Bucket)
	}
	if cfg.Output.S3.Prefix != "site/" {
		t.Errorf("S3.Prefix = %q, want site/", cfg.Output.S3.Prefix)
	}
	if !cfg.Output.S3.UsePathStyle {
		t.Error("S3.UsePathStyle = false")
	}
	if len(cfg.Dev.Ignore) != 1 || cfg.Dev.Ignore[0] != "**/*.test.ts" {
		t.Errorf("Dev.Ignore = %v", cfg.Dev.Ignore)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "densky.yaml", "name: from-yaml\n")
	writeConfig(t, tmpDir, "densky.json", `{"name": "from-json"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-json" {
		t.Errorf("Name = %q, want from-json", cfg.Name)
	}
}

func TestLoadFile_InvalidSyntax(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "densky.json", "not valid json"},
		{"yaml", "densky.yaml", "routes: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tmpDir, tt.file, tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), "E120") {
				t.Errorf("LoadFile() error = %v, want E120", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Dev.Port = 70000 }},
		{"bad debounce", func(c *Config) { c.Dev.Debounce = "soon" }},
		{"output is routes", func(c *Config) { c.Output.Dir = c.Routes.Dir + "/" }},
		{"s3 without bucket", func(c *Config) { c.Output.S3 = &S3Config{} }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), "E122") {
				t.Errorf("Validate() = %v, want E122", err)
			}
		})
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "densky.json", `{"dev": {"port": -1}}`)
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "E122") {
		t.Errorf("LoadFile() error = %v, want E122", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadOrDefault(tmpDir)
	if err != nil {
		t.Fatalf("LoadOrDefault error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.RoutesPath() != filepath.Join(tmpDir, DefaultRoutes) {
		t.Errorf("RoutesPath() = %q", cfg.RoutesPath())
	}
	if cfg.HTTPOutputPath() != filepath.Join(tmpDir, DefaultOutput, DefaultHTTPDir) {
		t.Errorf("HTTPOutputPath() = %q", cfg.HTTPOutputPath())
	}

	writeConfig(t, tmpDir, "densky.json", `{"routes": {"dir": "r"}}`)
	cfg, err = LoadOrDefault(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Routes.Dir != "r" {
		t.Errorf("Routes.Dir = %q, want r", cfg.Routes.Dir)
	}
}

func TestAbsolutePaths(t *testing.T) {
	cfg := New()
	cfg.SetDir("/project")
	cfg.Output.Dir = "/var/densky"

	if cfg.OutputPath() != "/var/densky" {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
	if cfg.RoutesPath() != filepath.Join("/project", DefaultRoutes) {
		t.Errorf("RoutesPath() = %q", cfg.RoutesPath())
	}
	if cfg.DevAddress() != "localhost:4400" {
		t.Errorf("DevAddress() = %q", cfg.DevAddress())
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "src", "routes", "users")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, tmpDir, "densky.yml", "name: x\n")

	root, err := FindProjectRoot(subDir)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("root = %q, want %q", root, tmpDir)
	}

	if _, err := FindProjectRoot(t.TempDir()); err == nil {
		t.Error("expected error outside a project")
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("DENSKY_TEST_VAR", "value")

	tests := []struct {
		in, want string
	}{
		{"${DENSKY_TEST_VAR}", "value"},
		{"${DENSKY_TEST_UNSET:-fallback}", "fallback"},
		{"${DENSKY_TEST_UNSET}", ""},
		{"$$id", "$id"},
		{"$id", "$id"},
	}
	for _, tt := range tests {
		if got := substituteEnvVars(tt.in); got != tt.want {
			t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

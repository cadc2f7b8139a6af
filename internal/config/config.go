package config

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the default project configuration file name.
const FileName = "ohv.toml"

// DefaultBaseURL is the raw-content endpoint used by the http remote.
const DefaultBaseURL = "https://raw.githubusercontent.com/"

// Config describes one project: which upstream repository its files are
// vendored from and where the source tree, cache and build area live.
type Config struct {
	Owner      string `toml:"owner"`
	Repo       string `toml:"repo"`
	SrcRoot    string `toml:"src_root"`    // project source tree
	CacheRoot  string `toml:"cache_root"`  // tracking store and raw blobs
	BuildRoot  string `toml:"build_root"`  // migrated snapshots, <build_root>/<version>/<path>
	RemoteRoot string `toml:"remote_root"` // directory inside the upstream repository
	Prefix     string `toml:"prefix"`      // directory inside src_root holding working copies
	BaseURL    string `toml:"base_url,omitempty"`
	LogDir     string `toml:"log_dir,omitempty"`
	LogLevel   string `toml:"log_level,omitempty"` // stderr threshold: debug, info (default), warn or error

	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Remote RemoteConfig `toml:"remote"`
	Patch  PatchConfig  `toml:"patch"`
}

// StoreConfig selects the tracking store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "json" (default), "sqlite" or "memory"
}

// CacheConfig selects the blob cache backend.
type CacheConfig struct {
	Type string `toml:"type"` // "filesystem" (default) or "memory"
}

// RemoteConfig selects where upstream content is fetched from.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type string `toml:"type"` // "http" (default), "s3" or "git"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// Git-specific fields (only used when Type == "git")
	GitURL  string `toml:"git_url,omitempty"`
	GitPath string `toml:"git_path,omitempty"` // existing local repository; wins over git_url
}

// PatchConfig tunes fuzzy patch application. Zero values keep the engine defaults.
type PatchConfig struct {
	MatchThreshold  float64 `toml:"match_threshold,omitempty"`
	MatchDistance   int     `toml:"match_distance,omitempty"`
	DeleteThreshold float64 `toml:"delete_threshold,omitempty"`
	Margin          int     `toml:"margin,omitempty"`
}

// NewConfig creates a scaffold Config for owner/repo with the default layout.
func NewConfig(owner, repo string) *Config {
	return &Config{
		Owner:     owner,
		Repo:      repo,
		SrcRoot:   "src",
		CacheRoot: "cache",
		BuildRoot: "dist",
		BaseURL:   DefaultBaseURL,
		Store:     StoreConfig{Type: "json"},
		Cache:     CacheConfig{Type: "filesystem"},
		Remote:    RemoteConfig{Type: "http"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config file at path, applies defaults, validates it and
// resolves relative roots against projectRoot.
func Load(path, projectRoot string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ResolvePaths(projectRoot); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, fs.ErrExist)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Store.Type == "" {
		c.Store.Type = "json"
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "filesystem"
	}
	if c.Remote.Type == "" {
		c.Remote.Type = "http"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogDir == "" && c.CacheRoot != "" {
		c.LogDir = filepath.Join(c.CacheRoot, "log")
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SrcRoot == "" {
		return fmt.Errorf("src_root is required")
	}
	if c.CacheRoot == "" {
		return fmt.Errorf("cache_root is required")
	}
	if c.BuildRoot == "" {
		return fmt.Errorf("build_root is required")
	}

	switch c.Remote.Type {
	case "http":
		if c.Owner == "" || c.Repo == "" {
			return fmt.Errorf("owner and repo are required for the http remote")
		}
	case "s3":
		if c.Remote.S3Bucket == "" {
			return fmt.Errorf("remote.s3_bucket is required for the s3 remote")
		}
		if c.Owner == "" || c.Repo == "" {
			return fmt.Errorf("owner and repo are required for the s3 remote")
		}
		if (c.Remote.S3AccessKeyID == "") != (c.Remote.S3SecretAccessKey == "") {
			return fmt.Errorf("remote.s3_access_key_id and remote.s3_secret_access_key must be set together")
		}
	case "git":
		if c.Remote.GitPath == "" && c.Remote.GitURL == "" && (c.Owner == "" || c.Repo == "") {
			return fmt.Errorf("remote.git_url, remote.git_path or owner and repo are required for the git remote")
		}
	default:
		return fmt.Errorf("invalid remote.type: %s (must be http, s3 or git)", c.Remote.Type)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if c.Patch.MatchThreshold < 0 || c.Patch.MatchThreshold > 1 {
		return fmt.Errorf("patch.match_threshold must be between 0 and 1")
	}
	if c.Patch.DeleteThreshold < 0 || c.Patch.DeleteThreshold > 1 {
		return fmt.Errorf("patch.delete_threshold must be between 0 and 1")
	}
	return nil
}

// Level parses LogLevel. An empty LogLevel means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level: %s (must be debug, info, warn or error)", c.LogLevel)
	}
	return level, nil
}

// ResolvePaths makes every relative filesystem root absolute against projectRoot.
func (c *Config) ResolvePaths(projectRoot string) error {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	for _, p := range []*string{&c.SrcRoot, &c.CacheRoot, &c.BuildRoot, &c.LogDir, &c.Remote.GitPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
	return nil
}

// GitURL returns the clone URL of the upstream repository for the git remote.
func (c *Config) GitURL() string {
	if c.Remote.GitURL != "" {
		return c.Remote.GitURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", c.Owner, c.Repo)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ilpatch/internal/normalize"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = "ilpatch.toml"

// Environment overrides.
const (
	EnvTargetURL      = "ILPATCH_TARGET_URL"
	EnvReplacementURL = "ILPATCH_REPLACEMENT_URL"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ErrMissing is additionally wrapped when a required setting is absent.
var ErrMissing = errors.New("missing setting")

// Config is the full tool configuration. It is passed by value into each
// component; nothing reads it from package state.
type Config struct {
	// Path is the file the config was loaded from; empty for defaults.
	Path string `toml:"-"`

	Normalize NormalizeConfig `toml:"normalize"`
	Rewrite   RewriteConfig   `toml:"rewrite"`
	Patch     PatchConfig     `toml:"patch"`
	Cache     CacheConfig     `toml:"cache"`
}

type NormalizeConfig struct {
	Keyword   string `toml:"keyword"`
	Strict    bool   `toml:"strict"`
	ChunkSize int    `toml:"chunk_size"`
}

type RewriteConfig struct {
	// two-stage mode
	MatchPattern   string `toml:"match_pattern"`
	ReplacePattern string `toml:"replace_pattern"`
	Replacement    string `toml:"replacement"`

	// url mode
	TargetURLs        []string `toml:"target_urls"`
	ReplacementURL    string   `toml:"replacement_url"`
	MatchURLPattern   string   `toml:"match_url_pattern"`
	ReplaceURLPattern string   `toml:"replace_url_pattern"`
}

type PatchConfig struct {
	ResolveDir   string   `toml:"resolve_dir"`
	ResourceExt  []string `toml:"resource_ext"`
	Jobs         int      `toml:"jobs"`
	OutputSuffix string   `toml:"output_suffix"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		Normalize: NormalizeConfig{
			Keyword:   normalize.DefaultKeyword,
			ChunkSize: normalize.DefaultChunkSize,
		},
		Patch: PatchConfig{
			ResourceExt:  []string{".js"},
			OutputSuffix: ".patched",
		},
		Cache: CacheConfig{Enabled: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path on top of Defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	if meta.IsDefined("normalize", "keyword") && strings.TrimSpace(cfg.Normalize.Keyword) == "" {
		return Config{}, fmt.Errorf("%s: %w: [normalize].keyword must not be empty", path, ErrInvalid)
	}
	if cfg.Normalize.ChunkSize < 0 {
		return Config{}, fmt.Errorf("%s: %w: [normalize].chunk_size must not be negative", path, ErrInvalid)
	}
	if cfg.Patch.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: %w: [patch].jobs must not be negative", path, ErrInvalid)
	}
	cfg.Path = path
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest FileName above
// startDir, otherwise Defaults. Environment overrides are applied last.
func Resolve(explicit, startDir string, getenv func(string) string) (Config, error) {
	var (
		cfg Config
		err error
	)
	switch {
	case explicit != "":
		cfg, err = Load(explicit)
	default:
		path, ok, ferr := Find(startDir)
		if ferr != nil {
			return Config{}, ferr
		}
		if ok {
			cfg, err = Load(path)
		} else {
			cfg = Defaults()
		}
	}
	if err != nil {
		return Config{}, err
	}
	ApplyEnv(&cfg, getenv)
	return cfg, nil
}

// ApplyEnv overrides URL-mode settings from the environment.
// ILPATCH_TARGET_URL holds a space separated list.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvTargetURL); strings.TrimSpace(v) != "" {
		cfg.Rewrite.TargetURLs = strings.Fields(v)
	}
	if v := getenv(EnvReplacementURL); v != "" {
		cfg.Rewrite.ReplacementURL = v
	}
}

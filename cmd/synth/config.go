package main

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the merged configuration of a build: config file first, then flags.
type Config struct {
	Output      string   `koanf:"output"`
	Formats     []string `koanf:"formats"`
	Separator   string   `koanf:"separator"`
	IndexPolicy string   `koanf:"index_policy"`
	JSONErrors  bool     `koanf:"json_errors"`
	Log         struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"format":       "formats",
	"index-policy": "index_policy",
	"json":         "json_errors",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// loadConfig layers the config file (if any) under the flags. Flags the user did not
// set only fill keys the file left empty.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD").With("path", path).Wrapf(err, "load config")
		}
	}
	cb := func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		return key, posflag.FlagVal(flags, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, cb), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD").Wrapf(err, "load flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}
	return &cfg, nil
}

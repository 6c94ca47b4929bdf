package sbatcher

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/kngwyu/sbatcher/sbatch"
)

// Config is one job description: a script template plus the sbatch options
// and template variables to render it with.
type Config struct {
	// Logdir is where the generated scripts and their logs go.
	Logdir string `mapstructure:"logdir" default:"."`

	// Shebang is the interpreter line of the generated script.
	Shebang string `mapstructure:"shebang" default:"#!/bin/bash -l"`

	// Template is the script body, inlined in the config. Exactly one of
	// Template and TemplatePath must be set.
	Template string `mapstructure:"template"`

	// TemplatePath points at a file holding the script body.
	TemplatePath string `mapstructure:"template_path"`

	SlurmOptions sbatch.Options `mapstructure:"slurm_options"`

	// TemplateVars holds the default template variables. Matrix axes and
	// overrides are merged on top of them.
	TemplateVars map[string]interface{} `mapstructure:"template_vars"`

	Matrix Matrix `mapstructure:"matrix"`

	// EnvVars become export lines in the script header.
	EnvVars map[string]interface{} `mapstructure:"env_vars"`
}

// DefaultConfig returns a Config with every default applied and no
// template set.
func DefaultConfig() (c Config) {
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return
}

// LoadConfig reads and validates a TOML job config.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return ParseConfig(raw)
}

// ParseConfig decodes a TOML document into a validated Config. Unknown
// keys anywhere in the document are errors, so a typo like
// [slurm_option] fails loudly instead of being dropped.
func ParseConfig(data []byte) (*Config, error) {
	// go-toml keeps map keys as written; template variable and env var
	// names are case-sensitive.
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  sbatch.DecodeHook(),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config as a whole and reports every problem it
// finds in one error.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Template != "" && c.TemplatePath != "" {
		result = multierror.Append(result, errors.New("template and template_path are mutually exclusive"))
	}
	if c.Template == "" && c.TemplatePath == "" {
		result = multierror.Append(result, errors.New("either template or template_path is required"))
	}
	if err := c.Matrix.validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.SlurmOptions.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (c *Config) templateBody() (string, error) {
	if c.TemplatePath == "" {
		return c.Template, nil
	}
	raw, err := os.ReadFile(c.TemplatePath)
	if err != nil {
		return "", errors.Wrap(err, "read template")
	}
	return string(raw), nil
}

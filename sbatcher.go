// Package sbatcher renders Slurm batch scripts from declarative TOML
// configs. A config names the sbatch options, a script template and the
// variables to fill it with; sbatcher expands the variable matrix and
// produces one ready-to-submit script per combination.
package sbatcher

import (
	"path/filepath"
	"strings"
)

// Generate loads a config file and renders its scripts. The config file
// stem becomes the job base name unless an option overrides it.
func Generate(path string, overrides Overrides, opts ...RenderOption) ([]Script, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	opts = append([]RenderOption{WithBaseName(base)}, opts...)
	return Render(cfg, overrides, opts...)
}

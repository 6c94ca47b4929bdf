package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/viper"
)

// Tool settings live outside job configs: where sbatch is and whether to
// submit at all. Resolution order is SBATCHER_* environment variables,
// then the user settings file, then defaults.
func initSettings() error {
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "sbatcher"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".sbatcher"))
	}

	viper.SetEnvPrefix("SBATCHER")
	viper.AutomaticEnv()

	viper.SetDefault("sbatch_bin", "")
	viper.SetDefault("submit", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// sbatchBin resolves the sbatch binary: the configured path when set,
// otherwise PATH lookup.
func sbatchBin() string {
	if bin := viper.GetString("sbatch_bin"); bin != "" {
		return bin
	}
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path
	}
	return "sbatch"
}

// submitEnabled reports whether job submission is switched on in the
// settings. SBATCHER_SUBMIT=false turns sbatcher into a pure generator.
func submitEnabled() bool {
	return viper.GetBool("submit")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kngwyu/sbatcher"
	"github.com/kngwyu/sbatcher/submit"
)

var (
	setFlags     []string
	baseName     string
	dryRun       bool
	yes          bool
	overwrite    bool
	noSubmit     bool
	noTimestamp  bool
	manifestPath string
)

var rootCmd = &cobra.Command{
	Use:           "sbatcher <config.toml>",
	Short:         "Render slurm batch scripts from a TOML config and hand them to sbatch",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0])
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringArrayVar(&setFlags, "set", nil, "override a template variable, e.g. --set seed=7 (repeatable)")
	f.StringVar(&baseName, "name", "", "job base name (defaults to the config file stem)")
	f.BoolVar(&dryRun, "dry-run", false, "submit with --test-only so nothing is queued")
	f.BoolVarP(&yes, "yes", "y", false, "answer yes to every prompt")
	f.BoolVar(&overwrite, "overwrite", false, "replace existing scripts instead of renaming the new ones")
	f.BoolVar(&noSubmit, "no-submit", false, "save scripts but do not call sbatch")
	f.BoolVar(&noTimestamp, "no-timestamp", false, "omit the generation-time comment")
	f.StringVar(&manifestPath, "manifest", "", "append generated jobs to a JSON-lines manifest")
}

func main() {
	if err := initSettings(); err != nil {
		log.Fatal().Err(err).Msg("failed to read settings")
	}
	if err := rootCmd.Execute(); err != nil {
		printErr("%v", err)
		// a failed sbatch call keeps its own exit code
		if exitErr, ok := errors.Cause(err).(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		log.Fatal().Err(err).Msg("sbatcher failed")
	}
}

func run(ctx context.Context, configPath string) error {
	overrides, err := parseOverrides(setFlags)
	if err != nil {
		return err
	}

	cfg, err := sbatcher.LoadConfig(configPath)
	if err != nil {
		return err
	}

	base := baseName
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	}
	opts := []sbatcher.RenderOption{sbatcher.WithBaseName(base)}
	if noTimestamp {
		opts = append(opts, sbatcher.WithoutTimestamp())
	}

	scripts, err := sbatcher.Render(cfg, overrides, opts...)
	if err != nil {
		return err
	}

	logdir, err := filepath.Abs(cfg.Logdir)
	if err != nil {
		return err
	}
	saver := submit.Saver{Dir: logdir, Overwrite: overwrite}
	runner := submit.Runner{Bin: sbatchBin(), TestOnly: dryRun}
	manifest := submit.Manifest{Path: manifestPath}

	submitting := !noSubmit && submitEnabled()
	if submitting {
		checkSlurmVersion(ctx, runner)
	}

	for _, script := range scripts {
		if !reviewScript(script) {
			printNote("skipping %s", script.Name)
			continue
		}

		plan, err := saver.Plan(script.FileName())
		if err != nil {
			return err
		}
		if plan.Renamed {
			printNote("%s exists, saving as %s", script.FileName(), filepath.Base(plan.Path))
		}
		if plan.Replaces {
			printNote("replacing %s", plan.Path)
		}
		if !yes {
			fmt.Println(strings.TrimRight(script.Text, "\n"))
			if !confirm("Write the above script to %s?", plan.Path) {
				printNote("skipping %s", script.Name)
				continue
			}
		}
		if err := saver.Commit(plan, script.Text); err != nil {
			return err
		}
		printOk("saved %s", plan.Path)

		entry := submit.Entry{
			Name:        script.Name,
			Path:        plan.Path,
			Variables:   script.Vars,
			SubmittedAt: time.Now(),
		}
		if submitting {
			jobID, err := runner.Submit(ctx, plan.Path)
			if err != nil {
				return err
			}
			entry.JobID = jobID
			if dryRun {
				printOk("%s passed sbatch --test-only", script.Name)
			} else {
				printOk("submitted %s as job %d", script.Name, jobID)
			}
		}
		if err := manifest.Append(entry); err != nil {
			return err
		}
	}
	return nil
}

// reviewScript reports unresolved and unused variables and asks whether
// to continue. sbatch happily queues a script with empty placeholders,
// so this is the last chance to catch a typo.
func reviewScript(s sbatcher.Script) bool {
	if len(s.Missing) == 0 && len(s.Unused) == 0 {
		return true
	}
	if len(s.Missing) > 0 {
		printWarn("%s: unresolved template variables: %s", s.Name, strings.Join(s.Missing, ", "))
	}
	if len(s.Unused) > 0 {
		printWarn("%s: unused variables: %s", s.Name, strings.Join(s.Unused, ", "))
	}
	return yes || confirm("Continue with %s anyway?", s.Name)
}

func checkSlurmVersion(ctx context.Context, r submit.Runner) {
	version, err := r.Version(ctx)
	if err != nil {
		printWarn("could not determine slurm version: %v", err)
		return
	}
	if !submit.SupportedVersion(version) {
		printWarn("slurm %s is older than %s; some directives may be rejected", version, submit.MinSlurmVersion)
	}
}

func parseOverrides(kvs []string) (sbatcher.Overrides, error) {
	out := make(sbatcher.Overrides, 0, len(kvs))
	for _, kv := range kvs {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, errors.Errorf("--set wants key=value, got %q", kv)
		}
		out = append(out, sbatcher.Var{Key: key, Value: value})
	}
	return out, nil
}

package sbatcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/airbloc/logger"
	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/thoas/go-funk"

	"github.com/kngwyu/sbatcher/sbatch"
)

// Template variables injected per job, on top of the configured ones.
const (
	// VarJobName expands to the job name of the current variable set.
	VarJobName = "SBATCHER_JOB_NAME"

	// VarLogfileName expands to the absolute log path stem for the
	// current job, logdir/<job name>.
	VarLogfileName = "SBATCHER_LOGFILE_NAME"
)

var log = logger.New("sbatcher")

var jobNameSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9|_-]`)

// RenderOptions control script assembly.
type RenderOptions struct {
	// BaseName is the first segment of every job name.
	BaseName string `default:"job"`

	// Timestamp toggles the generation-time comment in the header.
	Timestamp bool `default:"true"`

	// Clock supplies the timestamp. nil means time.Now.
	Clock func() time.Time
}

// RenderOption configures a single Render call.
type RenderOption func(o *RenderOptions)

// WithBaseName sets the first segment of every job name.
func WithBaseName(name string) RenderOption {
	return func(o *RenderOptions) {
		o.BaseName = name
	}
}

// WithoutTimestamp drops the generation-time comment, making the output
// depend only on its inputs.
func WithoutTimestamp() RenderOption {
	return func(o *RenderOptions) {
		o.Timestamp = false
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) RenderOption {
	return func(o *RenderOptions) {
		o.Clock = clock
	}
}

func buildRenderOptions(opts []RenderOption) (o RenderOptions) {
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	for _, optFn := range opts {
		optFn(&o)
	}
	return o
}

// Script is one rendered submission script.
type Script struct {
	// Name is the job name, <base>-default or <base> joined with the
	// overridden key-value pairs.
	Name string

	// Text is the full script, ready to hand to sbatch.
	Text string

	// Missing lists placeholders that had no variable and rendered as
	// empty strings, sorted.
	Missing []string

	// Unused lists provided variables the template never referenced,
	// sorted.
	Unused []string

	// Vars is the variable set this script was rendered with.
	Vars map[string]interface{}
}

// FileName returns the script's on-disk name.
func (s Script) FileName() string {
	return s.Name + ".bash"
}

// Render assembles one script per variable set of the config. Overrides
// pin matrix axes and add or replace template variables; the remaining
// axes are swept in declaration order.
//
// A missing variable or an unused one is not an error: the placeholders
// render empty and both are reported on the Script for the caller to act
// on. Colliding job names are errors, since the scripts would overwrite
// each other.
func Render(cfg *Config, overrides Overrides, opts ...RenderOption) ([]Script, error) {
	o := buildRenderOptions(opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	body, err := cfg.templateBody()
	if err != nil {
		return nil, err
	}
	logdir, err := filepath.Abs(cfg.Logdir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve logdir")
	}

	header := cfg.Shebang + sbatch.RenderOptions(&cfg.SlurmOptions)
	if !strings.HasSuffix(header, "\n") {
		header += "\n"
	}
	header += renderEnvVars(cfg.EnvVars)
	if o.Timestamp {
		now := time.Now
		if o.Clock != nil {
			now = o.Clock
		}
		header += fmt.Sprintf("# timestamp: %s\n", now().Format(time.RFC3339))
	}
	text := header + body

	cur := Resolve(cfg.TemplateVars, cfg.Matrix, overrides)
	scripts := make([]Script, 0, cur.Len())
	seen := map[string]struct{}{}
	var result *multierror.Error
	for cur.Next() {
		vars := cur.Values()
		name := jobName(o.BaseName, cur.Overridden())
		if _, dup := seen[name]; dup {
			result = multierror.Append(result, errors.Errorf("job name %q collides with an earlier variable set", name))
			continue
		}
		seen[name] = struct{}{}
		vars[VarJobName] = name
		vars[VarLogfileName] = filepath.Join(logdir, name)
		rendered, missing := substitute(text, vars)
		unused := funk.SubtractString(unusedVars(text, vars), []string{VarJobName, VarLogfileName})
		scripts = append(scripts, Script{
			Name:    name,
			Text:    rendered,
			Missing: missing,
			Unused:  unused,
			Vars:    vars,
		})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	log.Verbose("Rendered {} script(s) from {} variable set(s)", len(scripts), cur.Len())
	return scripts, nil
}

// jobName joins the base name with the overridden key-value pairs, or
// with "default" when nothing was overridden. Values are flattened so
// the name stays safe as a file name.
func jobName(base string, overridden []Var) string {
	if len(overridden) == 0 {
		return base + "-default"
	}
	parts := lo.Map(overridden, func(v Var, _ int) string {
		value := jobNameSanitizeRe.ReplaceAllString(fmt.Sprint(v.Value), "-")
		return fmt.Sprintf("%s-%s", v.Key, value)
	})
	return base + "-" + strings.Join(parts, "-")
}

func renderEnvVars(env map[string]interface{}) string {
	if len(env) == 0 {
		return ""
	}
	keys := lo.Keys(env)
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=%v\n", k, env[k])
	}
	return b.String()
}

package submit

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// MinSlurmVersion is the oldest slurm release the generated directives
// are known to work with.
const MinSlurmVersion = "21.08"

var jobIDRe = regexp.MustCompile(`Submitted batch job (\d+)`)

// Runner hands scripts to the sbatch client.
type Runner struct {
	// Bin is the sbatch binary; empty means "sbatch" from PATH.
	Bin string

	// TestOnly adds --test-only so slurm validates the script and
	// estimates a start time without queueing it.
	TestOnly bool
}

func (r Runner) bin() string {
	if r.Bin == "" {
		return "sbatch"
	}
	return r.Bin
}

// Submit runs sbatch on the script at path and returns the queued job
// id. In test-only mode nothing is queued and the id is 0.
func (r Runner) Submit(ctx context.Context, path string) (int, error) {
	var args []string
	if r.TestOnly {
		args = append(args, "--test-only")
	}
	args = append(args, path)

	out, err := exec.CommandContext(ctx, r.bin(), args...).CombinedOutput()
	if err != nil {
		return 0, errors.Wrapf(err, "sbatch failed: %s", strings.TrimSpace(string(out)))
	}
	if r.TestOnly {
		return 0, nil
	}
	m := jobIDRe.FindStringSubmatch(string(out))
	if m == nil {
		return 0, errors.Errorf("no job id in sbatch output: %q", strings.TrimSpace(string(out)))
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.Wrap(err, "parse job id")
	}
	log.Verbose("Submitted {} as job {}", path, id)
	return id, nil
}

// Version reports the slurm client version, like "23.02.6".
func (r Runner) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.bin(), "--version").Output()
	if err != nil {
		return "", errors.Wrap(err, "sbatch --version")
	}
	// the output looks like "slurm 23.02.6"
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 {
		return "", errors.Errorf("unexpected sbatch version output: %q", strings.TrimSpace(string(out)))
	}
	return fields[1], nil
}

// SupportedVersion reports whether a slurm version string is at least
// MinSlurmVersion. Versions that do not parse count as unsupported.
func SupportedVersion(version string) bool {
	v := canonicalVersion(version)
	if v == "" {
		return false
	}
	return semver.Compare(v, canonicalVersion(MinSlurmVersion)) >= 0
}

// canonicalVersion turns "21.08.8-2" into "v21.8.8". Slurm zero-pads the
// minor release and tacks build suffixes on the patch, both of which
// semver rejects.
func canonicalVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	nums := make([]string, 0, 3)
	for _, part := range parts {
		n, ok := leadingInt(part)
		if !ok {
			return ""
		}
		nums = append(nums, strconv.Itoa(n))
	}
	for len(nums) < 3 {
		nums = append(nums, "0")
	}
	return "v" + strings.Join(nums, ".")
}

func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

package sbatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DirectivePrefix starts every rendered directive line.
const DirectivePrefix = "#SBATCH"

const timeLayout = "2006-01-02T15:04:05"

// fieldRenderer pairs a directive key with the accessor producing its value
// suffix. The table below is the single source of truth for render order:
// one entry per Options field, in declaration order.
type fieldRenderer struct {
	key    string
	render func(o *Options) (suffix string, ok bool)
}

var fieldRenderers = []fieldRenderer{
	{"account", func(o *Options) (string, bool) { return eqString(o.Account) }},
	{"acctg-freq", func(o *Options) (string, bool) { return eqValues(o.AcctgFreq) }},
	{"array", func(o *Options) (string, bool) { return eqValue(o.Array) }},
	{"batch", func(o *Options) (string, bool) { return eqString(o.Batch) }},
	{"bb", func(o *Options) (string, bool) { return eqString(o.BB) }},
	{"bbf", func(o *Options) (string, bool) { return eqString(o.BBF) }},
	{"begin", func(o *Options) (string, bool) { return eqTime(o.Begin) }},
	{"chdir", func(o *Options) (string, bool) { return eqString(o.Chdir) }},
	{"cluster-constraint", func(o *Options) (string, bool) { return eqValue(o.ClusterConstraint) }},
	{"clusters", func(o *Options) (string, bool) { return eqStrings(o.Clusters) }},
	{"comment", func(o *Options) (string, bool) { return eqString(o.Comment) }},
	{"constraint", func(o *Options) (string, bool) { return eqString(o.Constraint) }},
	{"container", func(o *Options) (string, bool) { return eqString(o.Container) }},
	{"contiguous", func(o *Options) (string, bool) { return flag(o.Contiguous) }},
	{"core-spec", func(o *Options) (string, bool) { return eqInt(o.CoreSpec) }},
	{"cores-per-socket", func(o *Options) (string, bool) { return eqInt(o.CoresPerSocket) }},
	{"cpu-freq", func(o *Options) (string, bool) { return eqValue(o.CPUFreq) }},
	{"cpus-per-gpu", func(o *Options) (string, bool) { return eqInt(o.CpusPerGpu) }},
	{"cpus-per-task", func(o *Options) (string, bool) { return eqInt(o.CpusPerTask) }},
	{"deadline", func(o *Options) (string, bool) { return eqTime(o.Deadline) }},
	{"delay-boot", func(o *Options) (string, bool) { return eqInt(o.DelayBoot) }},
	{"dependency", func(o *Options) (string, bool) { return eqString(o.Dependency) }},
	{"distribution", func(o *Options) (string, bool) { return eqValue(o.Distribution) }},
	{"error", func(o *Options) (string, bool) { return eqString(o.Error) }},
	{"exclusive", func(o *Options) (string, bool) { return eqString(o.Exclusive) }},
	{"exclude", func(o *Options) (string, bool) { return eqStrings(o.Exclude) }},
	{"export", func(o *Options) (string, bool) { return eqStrings(o.Export) }},
	{"export-file", func(o *Options) (string, bool) { return eqString(o.ExportFile) }},
	{"extra-node-info", func(o *Options) (string, bool) { return eqValue(o.ExtraNodeInfo) }},
	{"get-user-env", func(o *Options) (string, bool) { return eqString(o.GetUserEnv) }},
	{"gid", func(o *Options) (string, bool) { return eqIntOrName(o.GID) }},
	{"gpu-bind", func(o *Options) (string, bool) { return eqValue(o.GpuBind) }},
	{"gpu-freq", func(o *Options) (string, bool) { return eqValue(o.GpuFreq) }},
	{"gpus", func(o *Options) (string, bool) { return eqValues(o.Gpus) }},
	{"gpus-per-node", func(o *Options) (string, bool) { return eqValues(o.GpusPerNode) }},
	{"gpus-per-task", func(o *Options) (string, bool) { return eqValues(o.GpusPerTask) }},
	{"gres", func(o *Options) (string, bool) { return eqValues(o.Gres) }},
	{"gres-flags", func(o *Options) (string, bool) { return eqString(o.GresFlags) }},
	{"hint", func(o *Options) (string, bool) { return eqString(o.Hint) }},
	{"hold", func(o *Options) (string, bool) { return flag(o.Hold) }},
	{"input", func(o *Options) (string, bool) { return eqString(o.Input) }},
	{"job-name", func(o *Options) (string, bool) { return eqString(o.JobName) }},
	{"kill-on-invalid-dep", func(o *Options) (string, bool) { return eqString(o.KillOnInvalidDep) }},
	{"licenses", func(o *Options) (string, bool) { return eqValues(o.Licenses) }},
	{"mail-type", func(o *Options) (string, bool) { return eqStrings(o.MailType) }},
	{"mail-user", func(o *Options) (string, bool) { return eqString(o.MailUser) }},
	{"mcs-label", func(o *Options) (string, bool) { return eqString(o.McsLabel) }},
	{"mem", func(o *Options) (string, bool) { return eqValue(o.Mem) }},
	{"mem-bind", func(o *Options) (string, bool) { return eqString(o.MemBind) }},
	{"mem-per-cpu", func(o *Options) (string, bool) { return eqValue(o.MemPerCpu) }},
	{"mincpus", func(o *Options) (string, bool) { return eqInt(o.Mincpus) }},
	{"network", func(o *Options) (string, bool) { return eqString(o.Network) }},
	{"nice", func(o *Options) (string, bool) { return eqInt(o.Nice) }},
	{"no-kill", func(o *Options) (string, bool) { return renderNoKill(o.NoKill) }},
	{"no-requeue", func(o *Options) (string, bool) { return flag(o.NoRequeue) }},
	{"node-file", func(o *Options) (string, bool) { return eqString(o.NodeFile) }},
	{"nodelist", func(o *Options) (string, bool) { return eqStrings(o.Nodelist) }},
	{"nodes", func(o *Options) (string, bool) { return eqValue(o.Nodes) }},
	{"ntasks", func(o *Options) (string, bool) { return eqInt(o.Ntasks) }},
	{"ntasks-per-core", func(o *Options) (string, bool) { return eqInt(o.NtasksPerCore) }},
	{"ntasks-per-gpu", func(o *Options) (string, bool) { return eqInt(o.NtasksPerGpu) }},
	{"ntasks-per-node", func(o *Options) (string, bool) { return eqInt(o.NtasksPerNode) }},
	{"ntasks-per-socket", func(o *Options) (string, bool) { return eqInt(o.NtasksPerSocket) }},
	{"output", func(o *Options) (string, bool) { return eqString(o.Output) }},
	{"open-mode", func(o *Options) (string, bool) { return eqString(o.OpenMode) }},
	{"overcommit", func(o *Options) (string, bool) { return flag(o.Overcommit) }},
	{"oversubscribe", func(o *Options) (string, bool) { return flag(o.Oversubscribe) }},
	{"parsable", func(o *Options) (string, bool) { return flag(o.Parsable) }},
	{"partition", func(o *Options) (string, bool) { return eqStrings(o.Partition) }},
	{"power", func(o *Options) (string, bool) { return eqStrings(o.Power) }},
	{"prefer", func(o *Options) (string, bool) { return eqStrings(o.Prefer) }},
	{"priority", func(o *Options) (string, bool) { return eqValue(o.Priority) }},
	{"profile", func(o *Options) (string, bool) { return eqStrings(o.Profile) }},
	{"propagate", func(o *Options) (string, bool) { return eqStrings(o.Propagate) }},
	{"qos", func(o *Options) (string, bool) { return eqInt(o.QOS) }},
	{"quiet", func(o *Options) (string, bool) { return flag(o.Quiet) }},
	{"requeue", func(o *Options) (string, bool) { return flag(o.Requeue) }},
	{"reservation", func(o *Options) (string, bool) { return eqStrings(o.Reservation) }},
	{"signal", func(o *Options) (string, bool) { return eqValue(o.Signal) }},
	{"sockets-per-node", func(o *Options) (string, bool) { return eqInt(o.SocketsPerNode) }},
	{"spread-job", func(o *Options) (string, bool) { return flag(o.SpreadJob) }},
	{"switches", func(o *Options) (string, bool) { return eqValue(o.Switches) }},
	{"thread-spec", func(o *Options) (string, bool) { return eqInt(o.ThreadSpec) }},
	{"threads-per-core", func(o *Options) (string, bool) { return eqInt(o.ThreadsPerCore) }},
	{"time", func(o *Options) (string, bool) { return eqValue(o.Time) }},
	{"time-min", func(o *Options) (string, bool) { return eqValue(o.TimeMin) }},
	{"tmp", func(o *Options) (string, bool) { return eqValue(o.Tmp) }},
	{"uid", func(o *Options) (string, bool) { return eqIntOrName(o.UID) }},
	{"use-min-nodes", func(o *Options) (string, bool) { return flag(o.UseMinNodes) }},
	{"verbose", func(o *Options) (string, bool) { return flag(o.Verbose) }},
	{"wait-all-nodes", func(o *Options) (string, bool) { return "=1", o.WaitAllNodes }},
	{"wckey", func(o *Options) (string, bool) { return eqString(o.Wckey) }},
}

// RenderOptions renders the directive block: one line per non-empty field
// in declaration order. A non-empty block carries a leading and a trailing
// newline so it concatenates directly after the shebang; an entirely empty
// model renders as the empty string.
func RenderOptions(o *Options) string {
	lines := make([]string, 0, len(fieldRenderers))
	for _, f := range fieldRenderers {
		if suffix, ok := f.render(o); ok {
			lines = append(lines, DirectivePrefix+" --"+f.key+suffix)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func eqString(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	return "=" + v, true
}

func eqInt(p *int) (string, bool) {
	if p == nil {
		return "", false
	}
	return fmt.Sprintf("=%d", *p), true
}

func eqTime(p *time.Time) (string, bool) {
	if p == nil {
		return "", false
	}
	return "=" + p.Format(timeLayout), true
}

func flag(v bool) (string, bool) {
	return "", v
}

func eqStrings(vs []string) (string, bool) {
	if len(vs) == 0 {
		return "", false
	}
	return "=" + strings.Join(vs, ","), true
}

func eqValue[T fmt.Stringer](p *T) (string, bool) {
	if p == nil {
		return "", false
	}
	return "=" + (*p).String(), true
}

func eqValues[T fmt.Stringer](vs []T) (string, bool) {
	if len(vs) == 0 {
		return "", false
	}
	rendered := lo.Map(vs, func(v T, _ int) string { return v.String() })
	return "=" + strings.Join(rendered, ","), true
}

func eqIntOrName(v IntOrName) (string, bool) {
	if v.isZero() {
		return "", false
	}
	return "=" + v.String(), true
}

func renderNoKill(v NoKill) (string, bool) {
	switch {
	case v.Set && v.Off:
		return "=off", true
	case v.Set:
		return "", true
	default:
		return "", false
	}
}

// Package sbatch models the sbatch directive set: a typed Options record,
// composite value types with canonical string forms, and a deterministic
// renderer producing the #SBATCH block of a submission script.
package sbatch

import (
	"time"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Options holds every supported sbatch directive. Field declaration order
// is the render order of the directive block. A field renders only when
// non-empty: nil pointers, empty strings, empty lists and false booleans
// all mean "not requested".
//
// --help, --version and --usage have no place in a generated script and are
// not modeled. --test-only is covered by dry-run submission.
type Options struct {
	Account           string             `mapstructure:"account"`
	AcctgFreq         []AcctgFreq        `mapstructure:"acctg_freq"`
	Array             *ArraySpec         `mapstructure:"array"`
	Batch             string             `mapstructure:"batch"`
	BB                string             `mapstructure:"bb"`
	BBF               string             `mapstructure:"bbf"`
	Begin             *time.Time         `mapstructure:"begin"`
	Chdir             string             `mapstructure:"chdir"`
	ClusterConstraint *ClusterConstraint `mapstructure:"cluster_constraint"`
	Clusters          []string           `mapstructure:"clusters"`
	Comment           string             `mapstructure:"comment"`
	Constraint        string             `mapstructure:"constraint"`
	Container         string             `mapstructure:"container"`
	Contiguous        bool               `mapstructure:"contiguous"`
	CoreSpec          *int               `mapstructure:"core_spec"`
	CoresPerSocket    *int               `mapstructure:"cores_per_socket"`
	CPUFreq           *CPUFreq           `mapstructure:"cpu_freq"`
	CpusPerGpu        *int               `mapstructure:"cpus_per_gpu"`
	CpusPerTask       *int               `mapstructure:"cpus_per_task"`
	Deadline          *time.Time         `mapstructure:"deadline"`
	DelayBoot         *int               `mapstructure:"delay_boot"`
	Dependency        string             `mapstructure:"dependency"`
	Distribution      *Distribution      `mapstructure:"distribution"`
	Error             string             `mapstructure:"error" default:"{{ SBATCHER_LOGFILE_NAME }}.err"`
	Exclusive         string             `mapstructure:"exclusive"`
	Exclude           []string           `mapstructure:"exclude"`
	Export            ExportSpec         `mapstructure:"export"`
	ExportFile        string             `mapstructure:"export_file"`
	ExtraNodeInfo     *NodeGeometry      `mapstructure:"extra_node_info"`
	GetUserEnv        string             `mapstructure:"get_user_env"`
	GID               IntOrName          `mapstructure:"gid"`
	GpuBind           *GpuBind           `mapstructure:"gpu_bind"`
	GpuFreq           *GpuFreq           `mapstructure:"gpu_freq"`
	Gpus              []GpuSpec          `mapstructure:"gpus"`
	GpusPerNode       []GpuSpec          `mapstructure:"gpus_per_node"`
	GpusPerTask       []GpuSpec          `mapstructure:"gpus_per_task"`
	Gres              []GresSpec         `mapstructure:"gres"`
	GresFlags         string             `mapstructure:"gres_flags"`
	Hint              string             `mapstructure:"hint"`
	Hold              bool               `mapstructure:"hold"`
	Input             string             `mapstructure:"input"`
	JobName           string             `mapstructure:"job_name" default:"{{ SBATCHER_JOB_NAME }}"`
	KillOnInvalidDep  string             `mapstructure:"kill_on_invalid_dep"`
	Licenses          []License          `mapstructure:"licenses"`
	MailType          []string           `mapstructure:"mail_type"`
	MailUser          string             `mapstructure:"mail_user"`
	McsLabel          string             `mapstructure:"mcs_label"`
	Mem               *Mem               `mapstructure:"mem"`
	MemBind           string             `mapstructure:"mem_bind"`
	MemPerCpu         *Mem               `mapstructure:"mem_per_cpu"`
	Mincpus           *int               `mapstructure:"mincpus"`
	Network           string             `mapstructure:"network"`
	Nice              *int               `mapstructure:"nice"`
	NoKill            NoKill             `mapstructure:"no_kill"`
	NoRequeue         bool               `mapstructure:"no_requeue"`
	NodeFile          string             `mapstructure:"node_file"`
	Nodelist          []string           `mapstructure:"nodelist"`
	Nodes             *NodeCount         `mapstructure:"nodes"`
	Ntasks            *int               `mapstructure:"ntasks"`
	NtasksPerCore     *int               `mapstructure:"ntasks_per_core"`
	NtasksPerGpu      *int               `mapstructure:"ntasks_per_gpu"`
	NtasksPerNode     *int               `mapstructure:"ntasks_per_node"`
	NtasksPerSocket   *int               `mapstructure:"ntasks_per_socket"`
	Output            string             `mapstructure:"output" default:"{{ SBATCHER_LOGFILE_NAME }}.out"`
	OpenMode          string             `mapstructure:"open_mode"`
	Overcommit        bool               `mapstructure:"overcommit"`
	Oversubscribe     bool               `mapstructure:"oversubscribe"`
	Parsable          bool               `mapstructure:"parsable"`
	Partition         Partition          `mapstructure:"partition"`
	Power             []string           `mapstructure:"power"`
	Prefer            []string           `mapstructure:"prefer"`
	Priority          *Priority          `mapstructure:"priority"`
	Profile           ProfileSpec        `mapstructure:"profile"`
	Propagate         []string           `mapstructure:"propagate"`
	QOS               *int               `mapstructure:"qos"`
	Quiet             bool               `mapstructure:"quiet"`
	Requeue           bool               `mapstructure:"requeue"`
	Reservation       []string           `mapstructure:"reservation"`
	Signal            *Signal            `mapstructure:"signal"`
	SocketsPerNode    *int               `mapstructure:"sockets_per_node"`
	SpreadJob         bool               `mapstructure:"spread_job"`
	Switches          *Switches          `mapstructure:"switches"`
	ThreadSpec        *int               `mapstructure:"thread_spec"`
	ThreadsPerCore    *int               `mapstructure:"threads_per_core"`
	Time              *Duration          `mapstructure:"time"`
	TimeMin           *Duration          `mapstructure:"time_min"`
	Tmp               *Mem               `mapstructure:"tmp"`
	UID               IntOrName          `mapstructure:"uid"`
	UseMinNodes       bool               `mapstructure:"use_min_nodes"`
	Verbose           bool               `mapstructure:"verbose"`
	WaitAllNodes      bool               `mapstructure:"wait_all_nodes"`
	Wckey             string             `mapstructure:"wckey"`
}

// DefaultOptions returns an Options with the defaulted fields populated.
// The output, error and job name defaults reference the synthetic variables
// injected by the script assembler.
func DefaultOptions() (o Options) {
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	return
}

var (
	exclusiveValues   = []string{"mcs", "user"}
	gresFlagValues    = []string{"disable-binding", "enforce-binding"}
	hintValues        = []string{"compute_bound", "memory_bound", "multithread", "nomultithread"}
	killOnInvalidDeps = []string{"yes", "no"}
	mailTypes         = []string{
		"NONE", "BEGIN", "END", "FAIL", "REQUEUE", "ALL", "INVALID_DEPEND",
		"STAGE_OUT", "TIME_LIMIT", "TIME_LIMIT_90", "TIME_LIMIT_80",
		"TIME_LIMIT_50", "ARRAY_TASKS",
	}
	memBindValues   = []string{"local", "none"}
	networkValues   = []string{"system", "blade"}
	openModeValues  = []string{"append", "truncate"}
	propagateLimits = []string{
		"ALL", "NONE", "AS", "CORE", "CPU", "DATA", "FSIZE", "MEMLOCK",
		"NOFILE", "NPROC", "RSS", "STACK",
	}
)

// Validate checks every enum literal and composite invariant, aggregating
// all problems into a single error.
func (o *Options) Validate() error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, a := range o.AcctgFreq {
		add(a.validate())
	}
	if o.Array != nil {
		add(o.Array.validate())
	}
	if o.ClusterConstraint != nil {
		add(o.ClusterConstraint.validate())
	}
	if o.CPUFreq != nil {
		add(o.CPUFreq.validate())
	}
	if o.Distribution != nil {
		add(o.Distribution.validate())
	}
	add(checkEnum("exclusive", o.Exclusive, exclusiveValues))
	add(o.Export.validate())
	if o.GpuBind != nil {
		add(o.GpuBind.validate())
	}
	if o.GpuFreq != nil {
		add(o.GpuFreq.validate())
	}
	for _, g := range o.Gpus {
		add(g.validate())
	}
	for _, g := range o.GpusPerNode {
		add(g.validate())
	}
	for _, g := range o.GpusPerTask {
		add(g.validate())
	}
	for _, g := range o.Gres {
		add(g.validate())
	}
	add(checkEnum("gres_flags", o.GresFlags, gresFlagValues))
	add(checkEnum("hint", o.Hint, hintValues))
	add(checkEnum("kill_on_invalid_dep", o.KillOnInvalidDep, killOnInvalidDeps))
	for _, l := range o.Licenses {
		add(l.validate())
	}
	for _, m := range o.MailType {
		add(checkEnum("mail_type", m, mailTypes))
	}
	if o.Mem != nil {
		add(o.Mem.validate())
	}
	add(checkEnum("mem_bind", o.MemBind, memBindValues))
	if o.MemPerCpu != nil {
		add(o.MemPerCpu.validate())
	}
	add(checkEnum("network", o.Network, networkValues))
	if o.Nodes != nil {
		add(o.Nodes.validate())
	}
	add(checkEnum("open_mode", o.OpenMode, openModeValues))
	add(o.Profile.validate())
	for _, p := range o.Propagate {
		add(checkEnum("propagate", p, propagateLimits))
	}
	if o.Signal != nil {
		add(o.Signal.validate())
	}
	if o.Switches != nil {
		add(o.Switches.validate())
	}
	if o.Time != nil {
		add(errors.WithMessage(o.Time.validate(), "time"))
	}
	if o.TimeMin != nil {
		add(errors.WithMessage(o.TimeMin.validate(), "time_min"))
	}
	if o.Tmp != nil {
		add(o.Tmp.validate())
	}
	if lo.Contains(o.MailType, "NONE") && len(o.MailType) > 1 {
		add(errors.New("mail_type: NONE cannot be combined with other values"))
	}
	return result.ErrorOrNil()
}

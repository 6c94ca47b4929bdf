package sbatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Directive value types. Each type owns its canonical sbatch string form
// (String) and its construction invariants (validate). Values decoded from
// a config file run the same checks through the decode hooks, so an invalid
// composite never reaches the renderer.

var (
	freqLevels     = []string{"low", "medium", "high", "highm1"}
	freqP2Levels   = []string{"medium", "high", "highm1"}
	governors      = []string{"Conservative", "OnDemand", "Performance", "PowerSave", "SchedUtil", "UserSpace"}
	acctgDatatypes = []string{"task", "energy", "network", "filesystem"}
	distFirsts     = []string{"block", "cyclic", "arbitrary", "plane"}
	distLevels     = []string{"block", "cyclic", "fcyclic"}
	gpuBindTypes   = []string{"closest", "map_gpu", "mask_gpu", "none", "per_task", "single"}
	memUnits       = []string{"K", "M", "G", "T"}
	signalOptions  = []string{"R", "B"}
	profileAlls    = []string{"All", "None"}
	profileKinds   = []string{"Energy", "Task", "Lustre", "Network"}
	exportAlls     = []string{"ALL", "NONE"}
)

func checkEnum(name, value string, allowed []string) error {
	if value == "" || lo.Contains(allowed, value) {
		return nil
	}
	return errors.Errorf("%s: %q is not one of %s", name, value, strings.Join(allowed, "|"))
}

// AcctgFreq is one datatype=interval pair of --acctg-freq.
type AcctgFreq struct {
	Datatype string `mapstructure:"datatype"`
	Interval int    `mapstructure:"interval"`
}

func (a AcctgFreq) String() string {
	return fmt.Sprintf("%s=%d", a.Datatype, a.Interval)
}

func (a AcctgFreq) validate() error {
	if a.Datatype == "" {
		return errors.New("acctg_freq: datatype is required")
	}
	if err := checkEnum("acctg_freq.datatype", a.Datatype, acctgDatatypes); err != nil {
		return err
	}
	if a.Interval <= 0 {
		return errors.Errorf("acctg_freq: interval must be positive, got %d", a.Interval)
	}
	return nil
}

// ArraySpec describes --array either as an explicit index list or as a
// range [first, last] / [first, last, step]. Exactly one form must be set.
type ArraySpec struct {
	Values      []int `mapstructure:"values"`
	Range       []int `mapstructure:"range"`
	MaxParallel *int  `mapstructure:"max_parallel"`
}

// ValuesArray builds an explicit-index array spec.
func ValuesArray(values ...int) (ArraySpec, error) {
	a := ArraySpec{Values: values}
	return a, a.validate()
}

// RangeArray builds a range array spec from [first, last] or [first, last, step].
func RangeArray(bounds ...int) (ArraySpec, error) {
	a := ArraySpec{Range: bounds}
	return a, a.validate()
}

func (a ArraySpec) validate() error {
	vlen, rlen := len(a.Values), len(a.Range)
	switch {
	case vlen == 0 && rlen == 0:
		return errors.New("array: one of values or range is required")
	case vlen > 0 && rlen > 0:
		return errors.New("array: values and range are mutually exclusive")
	case rlen == 1 || rlen > 3:
		return errors.Errorf("array: range expects 2 or 3 elements, got %d", rlen)
	}
	return nil
}

func (a ArraySpec) String() string {
	var b strings.Builder
	if len(a.Range) == 0 {
		b.WriteString(joinInts(a.Values, ","))
	} else {
		fmt.Fprintf(&b, "%d-%d", a.Range[0], a.Range[1])
		if len(a.Range) == 3 {
			fmt.Fprintf(&b, ":%d", a.Range[2])
		}
	}
	if a.MaxParallel != nil {
		fmt.Fprintf(&b, "%%%d", *a.MaxParallel)
	}
	return b.String()
}

// ClusterConstraint renders --cluster-constraint, with Exclude flipping the
// feature list into a rejection list.
type ClusterConstraint struct {
	Features []string `mapstructure:"features"`
	Exclude  bool     `mapstructure:"exclude"`
}

func (c ClusterConstraint) validate() error {
	if len(c.Features) == 0 {
		return errors.New("cluster_constraint: features is required")
	}
	return nil
}

func (c ClusterConstraint) String() string {
	joined := strings.Join(c.Features, ",")
	if c.Exclude {
		return "!" + joined
	}
	return joined
}

// FreqValue is a frequency given either in kilohertz or as a named level.
type FreqValue struct {
	KHz   int
	Level string
}

func (f FreqValue) isZero() bool { return f.KHz == 0 && f.Level == "" }

func (f FreqValue) String() string {
	if f.Level != "" {
		return f.Level
	}
	return strconv.Itoa(f.KHz)
}

// CPUFreq is the up-to-three part --cpu-freq request p1[-p2][:p3].
// P3 is a governor and may only be given together with P2.
type CPUFreq struct {
	P1 FreqValue `mapstructure:"p1"`
	P2 FreqValue `mapstructure:"p2"`
	P3 string    `mapstructure:"p3"`
}

func (c CPUFreq) validate() error {
	if c.P1.isZero() {
		return errors.New("cpu_freq: p1 is required")
	}
	if c.P2.isZero() && c.P3 != "" {
		return errors.New("cpu_freq: p3 is specified without p2")
	}
	if err := checkEnum("cpu_freq.p1", c.P1.Level, freqLevels); err != nil {
		return err
	}
	if err := checkEnum("cpu_freq.p2", c.P2.Level, freqP2Levels); err != nil {
		return err
	}
	return checkEnum("cpu_freq.p3", c.P3, governors)
}

func (c CPUFreq) String() string {
	var b strings.Builder
	b.WriteString(c.P1.String())
	if !c.P2.isZero() {
		b.WriteString("-" + c.P2.String())
	}
	if c.P3 != "" {
		b.WriteString(":" + c.P3)
	}
	return b.String()
}

// Distribution is the --distribution method. First is one of the documented
// method names or a plane size; Third may only be given together with Second.
type Distribution struct {
	First  string `mapstructure:"first"`
	Second string `mapstructure:"second"`
	Third  string `mapstructure:"third"`
	Pack   bool   `mapstructure:"pack"`
}

func (d Distribution) validate() error {
	if d.First == "" {
		return errors.New("distribution: first is required")
	}
	if _, err := strconv.Atoi(d.First); err != nil {
		if enumErr := checkEnum("distribution.first", d.First, distFirsts); enumErr != nil {
			return enumErr
		}
	}
	if d.Second == "" && d.Third != "" {
		return errors.New("distribution: third is specified without second")
	}
	if err := checkEnum("distribution.second", d.Second, distLevels); err != nil {
		return err
	}
	return checkEnum("distribution.third", d.Third, distLevels)
}

func (d Distribution) String() string {
	var b strings.Builder
	b.WriteString(d.First)
	if d.Second != "" {
		b.WriteString(":" + d.Second)
	}
	if d.Third != "" {
		b.WriteString(":" + d.Third)
	}
	if d.Pack {
		b.WriteString(",Pack")
	}
	return b.String()
}

// Duration is a wall-clock limit. At least one component must be non-zero.
type Duration struct {
	Days    int `mapstructure:"days"`
	Hours   int `mapstructure:"hours"`
	Minutes int `mapstructure:"minutes"`
}

// NewDuration validates and builds a Duration.
func NewDuration(days, hours, minutes int) (Duration, error) {
	d := Duration{Days: days, Hours: hours, Minutes: minutes}
	return d, d.validate()
}

func (d Duration) validate() error {
	if d.Days < 0 || d.Hours < 0 || d.Minutes < 0 {
		return errors.New("duration: negative component")
	}
	if d.Days == 0 && d.Hours == 0 && d.Minutes == 0 {
		return errors.New("duration: zero duration")
	}
	return nil
}

// String renders HH:MM, or D-HH:MM when days are present.
func (d Duration) String() string {
	if d.Days == 0 {
		return fmt.Sprintf("%02d:%02d", d.Hours, d.Minutes)
	}
	return fmt.Sprintf("%d-%02d:%02d", d.Days, d.Hours, d.Minutes)
}

// BindValue is the value part of a GPU binding: one or more map/mask
// entries, or a single task count. Scalars in the config decode to a
// single-element list.
type BindValue []string

// GpuBind selects how tasks are bound to GPUs.
type GpuBind struct {
	Type    string    `mapstructure:"type"`
	Value   BindValue `mapstructure:"value"`
	Verbose bool      `mapstructure:"verbose"`
}

func (g GpuBind) validate() error {
	if g.Type == "" {
		return errors.New("gpu_bind: type is required")
	}
	return checkEnum("gpu_bind.type", g.Type, gpuBindTypes)
}

func (g GpuBind) String() string {
	ret := g.Type
	if len(g.Value) > 0 {
		ret += ":" + strings.Join(g.Value, ",")
	}
	if g.Verbose {
		ret = "verbose," + ret
	}
	return ret
}

// GpuFreq requests a GPU frequency, optionally with a memory frequency.
type GpuFreq struct {
	Value   FreqValue `mapstructure:"value"`
	Memory  FreqValue `mapstructure:"memory"`
	Verbose bool      `mapstructure:"verbose"`
}

func (g GpuFreq) validate() error {
	if g.Value.isZero() {
		return errors.New("gpu_freq: value is required")
	}
	if err := checkEnum("gpu_freq.value", g.Value.Level, freqLevels); err != nil {
		return err
	}
	return checkEnum("gpu_freq.memory", g.Memory.Level, freqLevels)
}

func (g GpuFreq) String() string {
	ret := g.Value.String()
	if !g.Memory.isZero() {
		ret += ",memory=" + g.Memory.String()
	}
	if g.Verbose {
		ret += ",verbose"
	}
	return ret
}

// License is one entry of --licenses: name[@db][count].
type License struct {
	Name  string `mapstructure:"name"`
	DB    string `mapstructure:"db"`
	Count *int   `mapstructure:"count"`
}

func (l License) validate() error {
	if l.Name == "" {
		return errors.New("licenses: name is required")
	}
	return nil
}

func (l License) String() string {
	ret := l.Name
	if l.DB != "" {
		ret += "@" + l.DB
	}
	if l.Count != nil {
		ret += strconv.Itoa(*l.Count)
	}
	return ret
}

// Mem is a memory size with a binary-prefix unit, defaulting to megabytes.
type Mem struct {
	Size int    `mapstructure:"size"`
	Unit string `mapstructure:"unit"`
}

func (m Mem) validate() error {
	if m.Size <= 0 {
		return errors.Errorf("mem: size must be positive, got %d", m.Size)
	}
	return checkEnum("mem.unit", m.Unit, memUnits)
}

func (m Mem) String() string {
	unit := m.Unit
	if unit == "" {
		unit = "M"
	}
	return fmt.Sprintf("%d%s", m.Size, unit)
}

// Signal asks the scheduler to send a signal before the time limit:
// [option:]num@time.
type Signal struct {
	Num    IntOrName `mapstructure:"num"`
	Time   int       `mapstructure:"time" default:"60"`
	Option string    `mapstructure:"option"`
}

func (s Signal) validate() error {
	if s.Num.isZero() {
		return errors.New("signal: num is required")
	}
	return checkEnum("signal.option", s.Option, signalOptions)
}

func (s Signal) String() string {
	sigTime := s.Time
	if sigTime == 0 {
		sigTime = 60
	}
	ret := fmt.Sprintf("%s@%d", s.Num, sigTime)
	if s.Option != "" {
		ret = s.Option + ":" + ret
	}
	return ret
}

// Switches limits the job to count switches, optionally waiting at most
// MaxTime for them.
type Switches struct {
	Count   int       `mapstructure:"count"`
	MaxTime *Duration `mapstructure:"max_time"`
}

func (s Switches) validate() error {
	if s.Count <= 0 {
		return errors.Errorf("switches: count must be positive, got %d", s.Count)
	}
	if s.MaxTime != nil {
		return s.MaxTime.validate()
	}
	return nil
}

func (s Switches) String() string {
	if s.MaxTime == nil {
		return strconv.Itoa(s.Count)
	}
	return fmt.Sprintf("%d@%s", s.Count, s.MaxTime)
}

// GeomSlot is one slot of --extra-node-info: a count or the "*" wildcard.
type GeomSlot struct {
	N   int
	Any bool
}

func (s GeomSlot) String() string {
	if s.Any {
		return "*"
	}
	return strconv.Itoa(s.N)
}

// NodeGeometry is the sockets:cores:threads request of --extra-node-info.
type NodeGeometry struct {
	Sockets GeomSlot
	Cores   GeomSlot
	Threads GeomSlot
}

func (n NodeGeometry) String() string {
	return fmt.Sprintf("%s:%s:%s", n.Sockets, n.Cores, n.Threads)
}

// GpuSpec is one entry of --gpus and friends: a bare count or name:count.
type GpuSpec struct {
	Name  string
	Count int
}

func (g GpuSpec) validate() error {
	if g.Count <= 0 {
		return errors.Errorf("gpus: count must be positive, got %d", g.Count)
	}
	return nil
}

func (g GpuSpec) String() string {
	if g.Name == "" {
		return strconv.Itoa(g.Count)
	}
	return fmt.Sprintf("%s:%d", g.Name, g.Count)
}

// GresSpec is one generic-resource request: name:count or name:type:count.
type GresSpec struct {
	Name  string
	Type  string
	Count int
}

func (g GresSpec) validate() error {
	if g.Name == "" {
		return errors.New("gres: name is required")
	}
	if g.Count <= 0 {
		return errors.Errorf("gres: count must be positive, got %d", g.Count)
	}
	return nil
}

func (g GresSpec) String() string {
	if g.Type == "" {
		return fmt.Sprintf("%s:%d", g.Name, g.Count)
	}
	return fmt.Sprintf("%s:%s:%d", g.Name, g.Type, g.Count)
}

// NodeCount is --nodes, either a single count or a min-max span.
type NodeCount struct {
	Min int
	Max int
}

func (n NodeCount) validate() error {
	if n.Min <= 0 {
		return errors.Errorf("nodes: count must be positive, got %d", n.Min)
	}
	if n.Max != 0 && n.Max < n.Min {
		return errors.Errorf("nodes: max %d is below min %d", n.Max, n.Min)
	}
	return nil
}

func (n NodeCount) String() string {
	if n.Max == 0 {
		return strconv.Itoa(n.Min)
	}
	return fmt.Sprintf("%d-%d", n.Min, n.Max)
}

// Priority is a scheduling priority: a number or the TOP literal.
type Priority struct {
	Value int
	Top   bool
}

func (p Priority) String() string {
	if p.Top {
		return "TOP"
	}
	return strconv.Itoa(p.Value)
}

// IntOrName holds values like --uid that accept a numeric ID or a name.
type IntOrName struct {
	Num  *int
	Name string
}

func (i IntOrName) isZero() bool { return i.Num == nil && i.Name == "" }

func (i IntOrName) String() string {
	if i.Num != nil {
		return strconv.Itoa(*i.Num)
	}
	return i.Name
}

// NoKill models --no-kill: a bare flag, the "off" form, or absent.
type NoKill struct {
	Set bool
	Off bool
}

// Partition is one or more partition names; a bare string in the config
// decodes as a single-element list.
type Partition []string

// ExportSpec is --export: the ALL/NONE literals or a list of variable names.
type ExportSpec []string

func (e ExportSpec) validate() error {
	for _, v := range e {
		if lo.Contains(exportAlls, v) && len(e) > 1 {
			return errors.Errorf("export: %s cannot be combined with other values", v)
		}
	}
	return nil
}

// ProfileSpec is --profile: All, None, or a list of profiling kinds.
type ProfileSpec []string

func (p ProfileSpec) validate() error {
	if len(p) == 1 && lo.Contains(profileAlls, p[0]) {
		return nil
	}
	for _, v := range p {
		if err := checkEnum("profile", v, profileKinds); err != nil {
			return err
		}
	}
	return nil
}

func joinInts(values []int, sep string) string {
	return strings.Join(lo.Map(values, func(v int, _ int) string {
		return strconv.Itoa(v)
	}), sep)
}

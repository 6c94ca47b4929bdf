package sbatch

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestRenderOptionsGolden(t *testing.T) {
	o := DefaultOptions()
	o.CpusPerTask = intPtr(1)
	o.Gres = []GresSpec{{Name: "gpu", Count: 1}}
	o.MailType = []string{"END", "FAIL"}
	o.MailUser = "user@example.com"
	o.MemPerCpu = &Mem{Size: 16, Unit: "G"}
	o.Nodes = &NodeCount{Min: 1}
	o.Ntasks = intPtr(1)
	o.NtasksPerNode = intPtr(1)
	o.Partition = Partition{"gpu"}
	o.Time = &Duration{Days: 1}

	expected := `
#SBATCH --cpus-per-task=1
#SBATCH --error={{ SBATCHER_LOGFILE_NAME }}.err
#SBATCH --gres=gpu:1
#SBATCH --job-name={{ SBATCHER_JOB_NAME }}
#SBATCH --mail-type=END,FAIL
#SBATCH --mail-user=user@example.com
#SBATCH --mem-per-cpu=16G
#SBATCH --nodes=1
#SBATCH --ntasks=1
#SBATCH --ntasks-per-node=1
#SBATCH --output={{ SBATCHER_LOGFILE_NAME }}.out
#SBATCH --partition=gpu
#SBATCH --time=1-00:00
`
	require.Equal(t, expected, RenderOptions(&o))
}

func TestRenderOptionsDeterministic(t *testing.T) {
	o := DefaultOptions()
	o.Account = "lab"
	o.Array = &ArraySpec{Range: []int{1, 100, 20}, MaxParallel: intPtr(4)}
	o.Gpus = []GpuSpec{{Count: 2}, {Name: "a100", Count: 1}}
	o.Signal = &Signal{Num: IntOrName{Name: "USR1"}, Option: "B"}

	first := RenderOptions(&o)
	second := RenderOptions(&o)
	require.Equal(t, first, second)
}

func TestRenderOptionsEmpty(t *testing.T) {
	var o Options
	require.Equal(t, "", RenderOptions(&o))
}

func TestRenderOptionsFieldOrder(t *testing.T) {
	o := DefaultOptions()
	o.Wckey = "key"
	o.Account = "lab"
	o.Verbose = true
	o.Chdir = "/scratch"
	o.Exclude = []string{"node1"}

	keyRe := regexp.MustCompile(`^#SBATCH --([a-z-]+)`)
	var keys []string
	for _, line := range strings.Split(strings.Trim(RenderOptions(&o), "\n"), "\n") {
		m := keyRe.FindStringSubmatch(line)
		require.NotNil(t, m, "unexpected line %q", line)
		keys = append(keys, m[1])
	}
	require.Equal(t, []string{
		"account", "chdir", "error", "exclude", "job-name", "output",
		"verbose", "wckey",
	}, keys)
}

func TestRenderOptionsBooleans(t *testing.T) {
	var o Options
	o.Contiguous = true
	o.Hold = false
	o.Overcommit = true

	rendered := RenderOptions(&o)
	require.Contains(t, rendered, "#SBATCH --contiguous\n")
	require.Contains(t, rendered, "#SBATCH --overcommit\n")
	require.NotContains(t, rendered, "hold")
}

func TestRenderNoKillForms(t *testing.T) {
	var o Options

	require.Equal(t, "", RenderOptions(&o))

	o.NoKill = NoKill{Set: true}
	require.Equal(t, "\n#SBATCH --no-kill\n", RenderOptions(&o))

	o.NoKill = NoKill{Set: true, Off: true}
	require.Equal(t, "\n#SBATCH --no-kill=off\n", RenderOptions(&o))
}

func TestRenderWaitAllNodes(t *testing.T) {
	var o Options
	o.WaitAllNodes = true
	require.Equal(t, "\n#SBATCH --wait-all-nodes=1\n", RenderOptions(&o))
}

func TestRenderCollections(t *testing.T) {
	var o Options
	o.AcctgFreq = []AcctgFreq{{Datatype: "task", Interval: 30}, {Datatype: "energy", Interval: 60}}
	o.Licenses = []License{{Name: "nastran"}, {Name: "matlab", DB: "db1", Count: intPtr(2)}}
	o.ExtraNodeInfo = &NodeGeometry{Sockets: GeomSlot{N: 2}, Cores: GeomSlot{Any: true}, Threads: GeomSlot{N: 1}}
	o.Export = ExportSpec{"ALL"}

	rendered := RenderOptions(&o)
	require.Contains(t, rendered, "#SBATCH --acctg-freq=task=30,energy=60\n")
	require.Contains(t, rendered, "#SBATCH --licenses=nastran,matlab@db12\n")
	require.Contains(t, rendered, "#SBATCH --extra-node-info=2:*:1\n")
	require.Contains(t, rendered, "#SBATCH --export=ALL\n")
}

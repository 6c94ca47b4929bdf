package sbatch

import (
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/require"
)

// decodeInto simulates the config path: TOML parsers hand over
// map[string]interface{} with int64 numbers, which mapstructure plus the
// decode hook turn into a typed Options.
func decodeInto(t *testing.T, raw map[string]interface{}) (Options, error) {
	t.Helper()
	var o Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  DecodeHook(),
		ErrorUnused: true,
		Result:      &o,
	})
	require.NoError(t, err)
	return o, dec.Decode(raw)
}

func TestDecodeUnions(t *testing.T) {
	o, err := decodeInto(t, map[string]interface{}{
		"gid":       int64(1000),
		"uid":       "worker",
		"nodes":     int64(4),
		"priority":  "TOP",
		"partition": "gpu",
		"export":    "NONE",
		"no_kill":   "off",
		"gpus":      []interface{}{int64(2), []interface{}{"a100", int64(1)}},
		"gres": []interface{}{
			[]interface{}{"gpu", int64(1)},
			[]interface{}{"gpu", "a100", int64(2)},
		},
		"extra_node_info": []interface{}{"*", int64(3), "*"},
	})
	require.NoError(t, err)

	require.NotNil(t, o.GID.Num)
	require.Equal(t, 1000, *o.GID.Num)
	require.Equal(t, "worker", o.UID.Name)
	require.Equal(t, &NodeCount{Min: 4}, o.Nodes)
	require.True(t, o.Priority.Top)
	require.Equal(t, Partition{"gpu"}, o.Partition)
	require.Equal(t, ExportSpec{"NONE"}, o.Export)
	require.Equal(t, NoKill{Set: true, Off: true}, o.NoKill)
	require.Equal(t, []GpuSpec{{Count: 2}, {Name: "a100", Count: 1}}, o.Gpus)
	require.Equal(t, []GresSpec{{Name: "gpu", Count: 1}, {Name: "gpu", Type: "a100", Count: 2}}, o.Gres)
	require.Equal(t, "*:3:*", o.ExtraNodeInfo.String())
}

func TestDecodeNodeRange(t *testing.T) {
	o, err := decodeInto(t, map[string]interface{}{
		"nodes": []interface{}{int64(2), int64(6)},
	})
	require.NoError(t, err)
	require.Equal(t, &NodeCount{Min: 2, Max: 6}, o.Nodes)
}

func TestDecodeComposites(t *testing.T) {
	o, err := decodeInto(t, map[string]interface{}{
		"array":    map[string]interface{}{"range": []interface{}{int64(1), int64(100), int64(20)}, "max_parallel": int64(4)},
		"cpu_freq": map[string]interface{}{"p1": int64(1000000), "p2": "high"},
		"signal":   map[string]interface{}{"num": "USR1", "option": "R"},
		"time":     map[string]interface{}{"hours": int64(12), "minutes": int64(30)},
		"begin":    "2024-03-01T10:00:00",
	})
	require.NoError(t, err)

	require.Equal(t, "1-100:20%4", o.Array.String())
	require.Equal(t, "1000000-high", o.CPUFreq.String())
	require.Equal(t, "R:USR1@60", o.Signal.String())
	require.Equal(t, "12:30", o.Time.String())
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), o.Begin.UTC())
}

func TestDecodeDuration(t *testing.T) {
	for give, want := range map[string]string{
		"30:00":   "30:00",
		"2-00:15": "2-00:15",
		"0-12:30": "12:30",
	} {
		o, err := decodeInto(t, map[string]interface{}{"time": give})
		require.NoError(t, err)
		require.Equal(t, want, o.Time.String())
	}

	// a bare number counts minutes
	o, err := decodeInto(t, map[string]interface{}{"time": int64(90)})
	require.NoError(t, err)
	require.Equal(t, "01:30", o.Time.String())

	for name, give := range map[string]interface{}{
		"seconds given": "12:30:00",
		"no colon":      "12h",
		"zero":          "00:00",
		"negative day":  "-1-00:30",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeInto(t, map[string]interface{}{"time": give})
			require.Error(t, err)
		})
	}
}

func TestDecodeMem(t *testing.T) {
	o, err := decodeInto(t, map[string]interface{}{
		"mem":         "16gb",
		"tmp":         int64(512),
		"mem_per_cpu": map[string]interface{}{"size": int64(2), "unit": "G"},
	})
	require.NoError(t, err)
	require.Equal(t, "16G", o.Mem.String())
	require.Equal(t, "512M", o.Tmp.String())
	require.Equal(t, "2G", o.MemPerCpu.String())

	_, err = decodeInto(t, map[string]interface{}{"mem": "lots"})
	require.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	for name, raw := range map[string]map[string]interface{}{
		"unknown field":        {"wallclock": int64(1)},
		"priority junk":        {"priority": "HIGHEST"},
		"no_kill junk":         {"no_kill": "never"},
		"geometry too short":   {"extra_node_info": []interface{}{int64(1)}},
		"geometry bad slot":    {"extra_node_info": []interface{}{"x", int64(1), int64(1)}},
		"gpus malformed":       {"gpus": []interface{}{[]interface{}{"a100"}}},
		"gres malformed":       {"gres": []interface{}{[]interface{}{"gpu"}}},
		"begin unparseable":    {"begin": "tomorrow"},
		"clusters not a list":  {"clusters": "all"},
		"nodes malformed pair": {"nodes": []interface{}{int64(1), int64(2), int64(3)}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeInto(t, raw)
			require.Error(t, err)
		})
	}
}

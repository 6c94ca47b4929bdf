package sbatch

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// DecodeHook returns the mapstructure hook that reshapes the union-typed
// config values (int-or-name, count-or-pair, scalar-or-list and friends)
// into their model types. Invariant checking stays in Options.Validate;
// the hook only settles shapes.
func DecodeHook() mapstructure.DecodeHookFunc {
	return decodeValue
}

var (
	freqValueType    = reflect.TypeOf(FreqValue{})
	geomSlotType     = reflect.TypeOf(GeomSlot{})
	nodeGeometryType = reflect.TypeOf(NodeGeometry{})
	gpuSpecType      = reflect.TypeOf(GpuSpec{})
	gresSpecType     = reflect.TypeOf(GresSpec{})
	nodeCountType    = reflect.TypeOf(NodeCount{})
	priorityType     = reflect.TypeOf(Priority{})
	intOrNameType    = reflect.TypeOf(IntOrName{})
	noKillType       = reflect.TypeOf(NoKill{})
	partitionType    = reflect.TypeOf(Partition(nil))
	exportSpecType   = reflect.TypeOf(ExportSpec(nil))
	profileSpecType  = reflect.TypeOf(ProfileSpec(nil))
	bindValueType    = reflect.TypeOf(BindValue(nil))
	durationType     = reflect.TypeOf(Duration{})
	memType          = reflect.TypeOf(Mem{})
	timeType         = reflect.TypeOf(time.Time{})
)

func decodeValue(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from == to {
		return data, nil
	}
	if to.Kind() == reflect.Ptr {
		to = to.Elem()
	}
	switch to {
	case freqValueType:
		return decodeFreqValue(data)
	case geomSlotType:
		return decodeGeomSlot(data)
	case nodeGeometryType:
		return decodeNodeGeometry(data)
	case gpuSpecType:
		return decodeGpuSpec(data)
	case gresSpecType:
		return decodeGresSpec(data)
	case nodeCountType:
		return decodeNodeCount(data)
	case priorityType:
		return decodePriority(data)
	case intOrNameType:
		return decodeIntOrName(data)
	case noKillType:
		return decodeNoKill(data)
	case partitionType, exportSpecType, profileSpecType:
		if s, ok := data.(string); ok {
			return []string{s}, nil
		}
		return data, nil
	case bindValueType:
		if n, ok := toInt(data); ok {
			return []string{strconv.Itoa(n)}, nil
		}
		if s, ok := data.(string); ok {
			return []string{s}, nil
		}
		return data, nil
	case durationType:
		return decodeDuration(data)
	case memType:
		return decodeMem(data)
	case timeType:
		return decodeTime(data)
	}
	return data, nil
}

func toInt(data interface{}) (int, bool) {
	switch v := data.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func decodeFreqValue(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return FreqValue{KHz: n}, nil
	}
	if s, ok := data.(string); ok {
		return FreqValue{Level: s}, nil
	}
	return nil, errors.Errorf("frequency expects a number or a level name, got %T", data)
}

func decodeGeomSlot(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return GeomSlot{N: n}, nil
	}
	if s, ok := data.(string); ok {
		if s == "*" {
			return GeomSlot{Any: true}, nil
		}
		return nil, errors.Errorf("extra_node_info: %q is not a count or \"*\"", s)
	}
	return nil, errors.Errorf("extra_node_info expects a number or \"*\", got %T", data)
}

func decodeNodeGeometry(data interface{}) (interface{}, error) {
	items, ok := data.([]interface{})
	if !ok || len(items) != 3 {
		return nil, errors.New("extra_node_info expects [sockets, cores, threads]")
	}
	var geom NodeGeometry
	for i, target := range []*GeomSlot{&geom.Sockets, &geom.Cores, &geom.Threads} {
		decoded, err := decodeGeomSlot(items[i])
		if err != nil {
			return nil, err
		}
		*target = decoded.(GeomSlot)
	}
	return geom, nil
}

func decodeGpuSpec(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return GpuSpec{Count: n}, nil
	}
	items, ok := data.([]interface{})
	if !ok || len(items) != 2 {
		return nil, errors.Errorf("gpus expects a count or [name, count], got %v", data)
	}
	name, ok := items[0].(string)
	if !ok {
		return nil, errors.Errorf("gpus: name must be a string, got %T", items[0])
	}
	count, ok := toInt(items[1])
	if !ok {
		return nil, errors.Errorf("gpus: count must be a number, got %T", items[1])
	}
	return GpuSpec{Name: name, Count: count}, nil
}

func decodeGresSpec(data interface{}) (interface{}, error) {
	items, ok := data.([]interface{})
	if !ok || len(items) < 2 || len(items) > 3 {
		return nil, errors.Errorf("gres expects [name, count] or [name, type, count], got %v", data)
	}
	name, ok := items[0].(string)
	if !ok {
		return nil, errors.Errorf("gres: name must be a string, got %T", items[0])
	}
	spec := GresSpec{Name: name}
	if len(items) == 3 {
		gresType, ok := items[1].(string)
		if !ok {
			return nil, errors.Errorf("gres: type must be a string, got %T", items[1])
		}
		spec.Type = gresType
	}
	count, ok := toInt(items[len(items)-1])
	if !ok {
		return nil, errors.Errorf("gres: count must be a number, got %T", items[len(items)-1])
	}
	spec.Count = count
	return spec, nil
}

func decodeNodeCount(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return NodeCount{Min: n}, nil
	}
	items, ok := data.([]interface{})
	if !ok || len(items) != 2 {
		return nil, errors.Errorf("nodes expects a count or [min, max], got %v", data)
	}
	min, okMin := toInt(items[0])
	max, okMax := toInt(items[1])
	if !okMin || !okMax {
		return nil, errors.New("nodes: min and max must be numbers")
	}
	return NodeCount{Min: min, Max: max}, nil
}

func decodePriority(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return Priority{Value: n}, nil
	}
	if s, ok := data.(string); ok {
		if s == "TOP" {
			return Priority{Top: true}, nil
		}
		return nil, errors.Errorf("priority: %q is not a number or TOP", s)
	}
	return nil, errors.Errorf("priority expects a number or TOP, got %T", data)
}

func decodeIntOrName(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return IntOrName{Num: &n}, nil
	}
	if s, ok := data.(string); ok {
		return IntOrName{Name: s}, nil
	}
	return nil, errors.Errorf("expected a number or a name, got %T", data)
}

func decodeNoKill(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case bool:
		return NoKill{Set: v}, nil
	case string:
		if v == "off" {
			return NoKill{Set: true, Off: true}, nil
		}
		return nil, errors.Errorf("no_kill: %q is not a boolean or \"off\"", v)
	}
	return nil, errors.Errorf("no_kill expects a boolean or \"off\", got %T", data)
}

// decodeMem accepts "8gb"-style strings, a bare number of megabytes, or
// the {size, unit} table, which falls through to the field-wise decode.
func decodeMem(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return Mem{Size: n}, nil
	}
	if s, ok := data.(string); ok {
		return parseMem(s)
	}
	return data, nil
}

func parseMem(s string) (Mem, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return Mem{}, errors.Errorf("memory size %q must start with digits", s)
	}
	size, err := strconv.Atoi(s[:i])
	if err != nil {
		return Mem{}, errors.Wrapf(err, "memory size %q", s)
	}
	unit := strings.TrimSuffix(strings.ToUpper(s[i:]), "B")
	return Mem{Size: size, Unit: unit}, nil
}

// decodeDuration accepts "HH:MM", "D-HH:MM", a bare number of minutes, or
// the {days, hours, minutes} table, which falls through to the field-wise
// decode.
func decodeDuration(data interface{}) (interface{}, error) {
	if n, ok := toInt(data); ok {
		return NewDuration(0, n/60, n%60)
	}
	if s, ok := data.(string); ok {
		return parseDuration(s)
	}
	return data, nil
}

func parseDuration(s string) (Duration, error) {
	days := 0
	rest := s
	if i := strings.IndexByte(s, '-'); i >= 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return Duration{}, errors.Errorf("duration: bad day count in %q", s)
		}
		days = n
		rest = s[i+1:]
	}
	hh, mm, found := strings.Cut(rest, ":")
	if !found {
		return Duration{}, errors.Errorf("duration: %q is not [D-]HH:MM", s)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return Duration{}, errors.Errorf("duration: %q is not [D-]HH:MM", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return Duration{}, errors.Errorf("duration: %q is not [D-]HH:MM", s)
	}
	return NewDuration(days, hours, minutes)
}

func decodeTime(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case fmt.Stringer:
		return parseTime(v.String())
	}
	return nil, errors.Errorf("expected a date-time, got %T", data)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("cannot parse %q as a date-time", s)
}

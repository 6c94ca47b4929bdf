package sbatcher

import (
	"sort"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Var is a single named template variable.
type Var struct {
	Key   string
	Value interface{}
}

// Overrides is an ordered list of caller-supplied variables. Order matters
// for job naming: override keys join the name suffix in the order given
// here. A repeated key keeps its first position but takes the last value.
type Overrides []Var

// OverridesFromMap builds Overrides from a map, ordered by key.
func OverridesFromMap(m map[string]interface{}) Overrides {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Overrides, 0, len(m))
	for _, k := range keys {
		out = append(out, Var{Key: k, Value: m[k]})
	}
	return out
}

func (o Overrides) get(key string) (interface{}, bool) {
	var value interface{}
	found := false
	for _, v := range o {
		if v.Key == key {
			value, found = v.Value, true
		}
	}
	return value, found
}

func (o Overrides) dedup() Overrides {
	out := make(Overrides, 0, len(o))
	pos := map[string]int{}
	for _, v := range o {
		if i, ok := pos[v.Key]; ok {
			out[i].Value = v.Value
			continue
		}
		pos[v.Key] = len(out)
		out = append(out, v)
	}
	return out
}

// MatrixAxis is one [[matrix]] entry: a variable name and the values it
// sweeps over.
type MatrixAxis struct {
	Name   string        `mapstructure:"name"`
	Values []interface{} `mapstructure:"values"`
}

// Matrix is the ordered list of swept variables. The cartesian product of
// the axes yields one variable set per combination, with the rightmost
// axis varying fastest.
type Matrix []MatrixAxis

func (m Matrix) validate() error {
	seen := map[string]struct{}{}
	for _, ax := range m {
		if ax.Name == "" {
			return errors.New("matrix axis without a name")
		}
		if _, dup := seen[ax.Name]; dup {
			return errors.Errorf("matrix axis %q declared twice", ax.Name)
		}
		seen[ax.Name] = struct{}{}
		if len(ax.Values) == 0 {
			return errors.Errorf("matrix axis %q has no values", ax.Name)
		}
	}
	return nil
}

func (m Matrix) has(name string) bool {
	for _, ax := range m {
		if ax.Name == name {
			return true
		}
	}
	return false
}

// VarCursor walks the variable sets produced by defaults, a matrix and
// overrides. Use it like an iterator:
//
//	cur := Resolve(defaults, matrix, overrides)
//	for cur.Next() {
//		vars := cur.Values()
//		...
//	}
//
// Values and Overridden are only valid after Next returned true.
type VarCursor struct {
	defaults  map[string]interface{}
	overrides Overrides
	axes      Matrix
	free      Matrix
	idx       []int
	started   bool
	done      bool
}

// Resolve builds a cursor over every variable set the inputs describe.
// An override pins its matrix axis to a single value; axes not overridden
// are swept in declaration order.
func Resolve(defaults map[string]interface{}, matrix Matrix, overrides Overrides) *VarCursor {
	overrides = overrides.dedup()
	free := make(Matrix, 0, len(matrix))
	for _, ax := range matrix {
		if _, pinned := overrides.get(ax.Name); !pinned {
			free = append(free, ax)
		}
	}
	return &VarCursor{
		defaults:  defaults,
		overrides: overrides,
		axes:      matrix,
		free:      free,
		idx:       make([]int, len(free)),
	}
}

// Len reports how many variable sets the cursor yields in total.
func (c *VarCursor) Len() int {
	n := 1
	for _, ax := range c.free {
		n *= len(ax.Values)
	}
	return n
}

// Next advances to the next variable set. It returns false once every
// combination has been yielded.
func (c *VarCursor) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		return true
	}
	for i := len(c.idx) - 1; i >= 0; i-- {
		c.idx[i]++
		if c.idx[i] < len(c.free[i].Values) {
			return true
		}
		c.idx[i] = 0
	}
	c.done = true
	return false
}

// Values merges defaults, the current matrix combination and the overrides
// into one variable set. Defaults are deep-copied so mutating the result
// never leaks into later sets.
func (c *VarCursor) Values() map[string]interface{} {
	merged := map[string]interface{}{}
	if len(c.defaults) > 0 {
		if err := copier.CopyWithOption(&merged, c.defaults, copier.Option{DeepCopy: true}); err != nil {
			// map-to-map copy only fails on type mismatch, which cannot
			// happen for two map[string]interface{} values
			panic(err)
		}
	}
	for i, ax := range c.free {
		merged[ax.Name] = ax.Values[c.idx[i]]
	}
	for _, ov := range c.overrides {
		merged[ov.Key] = ov.Value
	}
	return merged
}

// Overridden reports the variables that distinguish the current set from
// the plain defaults: every matrix axis (pinned or swept), then the
// override keys that name neither an axis nor a default. The order is
// axis declaration order followed by override order, matching the job
// name suffix.
func (c *VarCursor) Overridden() []Var {
	out := make([]Var, 0, len(c.axes)+len(c.overrides))
	for _, ax := range c.axes {
		if v, pinned := c.overrides.get(ax.Name); pinned {
			out = append(out, Var{Key: ax.Name, Value: v})
			continue
		}
		out = append(out, Var{Key: ax.Name, Value: c.currentChoice(ax.Name)})
	}
	for _, ov := range c.overrides {
		if c.axes.has(ov.Key) {
			continue
		}
		if _, known := c.defaults[ov.Key]; known {
			continue
		}
		out = append(out, ov)
	}
	return out
}

func (c *VarCursor) currentChoice(name string) interface{} {
	for i, ax := range c.free {
		if ax.Name == name {
			return ax.Values[c.idx[i]]
		}
	}
	return nil
}

package sbatcher

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVarCursor(t *testing.T) {
	Convey("Given defaults and a two-axis matrix", t, func() {
		defaults := map[string]interface{}{"lr": 0.1, "seed": 0}
		matrix := Matrix{
			{Name: "model", Values: []interface{}{"cnn", "mlp"}},
			{Name: "seed", Values: []interface{}{1, 2, 3}},
		}

		Convey("Without overrides it sweeps the full product, last axis fastest", func() {
			cur := Resolve(defaults, matrix, nil)
			So(cur.Len(), ShouldEqual, 6)

			var got []string
			for cur.Next() {
				vars := cur.Values()
				got = append(got, fmt.Sprintf("%v/%v", vars["model"], vars["seed"]))
			}
			So(got, ShouldResemble, []string{"cnn/1", "cnn/2", "cnn/3", "mlp/1", "mlp/2", "mlp/3"})
			So(cur.Next(), ShouldBeFalse)
		})

		Convey("Resolving again replays the same sequence", func() {
			sweep := func() []string {
				cur := Resolve(defaults, matrix, nil)
				var got []string
				for cur.Next() {
					vars := cur.Values()
					got = append(got, fmt.Sprintf("%v/%v", vars["model"], vars["seed"]))
				}
				return got
			}
			So(sweep(), ShouldResemble, sweep())
		})

		Convey("An override pins its axis", func() {
			cur := Resolve(defaults, matrix, Overrides{{Key: "model", Value: "mlp"}})
			So(cur.Len(), ShouldEqual, 3)

			var seeds []interface{}
			for cur.Next() {
				vars := cur.Values()
				So(vars["model"], ShouldEqual, "mlp")
				seeds = append(seeds, vars["seed"])
			}
			So(seeds, ShouldResemble, []interface{}{1, 2, 3})
		})

		Convey("Overridden lists axes first, then unknown override keys", func() {
			overrides := Overrides{
				{Key: "tag", Value: "v2"},
				{Key: "lr", Value: 0.5},
				{Key: "model", Value: "cnn"},
			}
			cur := Resolve(defaults, matrix, overrides)
			So(cur.Next(), ShouldBeTrue)

			// lr replaces a default, so it never joins the name
			So(cur.Overridden(), ShouldResemble, []Var{
				{Key: "model", Value: "cnn"},
				{Key: "seed", Value: 1},
				{Key: "tag", Value: "v2"},
			})
			So(cur.Values()["lr"], ShouldEqual, 0.5)
		})
	})

	Convey("Without a matrix there is exactly one variable set", t, func() {
		cur := Resolve(map[string]interface{}{"a": 1}, nil, nil)
		So(cur.Len(), ShouldEqual, 1)
		So(cur.Next(), ShouldBeTrue)
		So(cur.Values(), ShouldResemble, map[string]interface{}{"a": 1})
		So(cur.Overridden(), ShouldBeEmpty)
		So(cur.Next(), ShouldBeFalse)
	})

	Convey("Values deep-copies the defaults", t, func() {
		defaults := map[string]interface{}{
			"opt": map[string]interface{}{"momentum": 0.9},
		}
		matrix := Matrix{{Name: "seed", Values: []interface{}{1, 2}}}
		cur := Resolve(defaults, matrix, nil)

		So(cur.Next(), ShouldBeTrue)
		first := cur.Values()
		first["opt"].(map[string]interface{})["momentum"] = 0.0

		So(cur.Next(), ShouldBeTrue)
		second := cur.Values()
		So(second["opt"].(map[string]interface{})["momentum"], ShouldEqual, 0.9)
	})
}

func TestOverrides(t *testing.T) {
	Convey("A repeated key keeps its first position and last value", t, func() {
		o := Overrides{
			{Key: "a", Value: 1},
			{Key: "b", Value: 2},
			{Key: "a", Value: 3},
		}.dedup()
		So(o, ShouldResemble, Overrides{
			{Key: "a", Value: 3},
			{Key: "b", Value: 2},
		})
	})

	Convey("OverridesFromMap orders by key", t, func() {
		o := OverridesFromMap(map[string]interface{}{"z": 1, "a": 2, "m": 3})
		So(o, ShouldResemble, Overrides{
			{Key: "a", Value: 2},
			{Key: "m", Value: 3},
			{Key: "z", Value: 1},
		})
	})
}

func TestMatrixValidate(t *testing.T) {
	Convey("A well-formed matrix passes", t, func() {
		m := Matrix{
			{Name: "a", Values: []interface{}{1}},
			{Name: "b", Values: []interface{}{2, 3}},
		}
		So(m.validate(), ShouldBeNil)
	})

	Convey("Duplicate axes, missing names and empty value lists fail", t, func() {
		So(Matrix{
			{Name: "a", Values: []interface{}{1}},
			{Name: "a", Values: []interface{}{2}},
		}.validate(), ShouldNotBeNil)
		So(Matrix{{Values: []interface{}{1}}}.validate(), ShouldNotBeNil)
		So(Matrix{{Name: "a"}}.validate(), ShouldNotBeNil)
	})
}

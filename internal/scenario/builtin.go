package scenario

import (
	"fmt"
	"sort"

	"standAlloc/internal/apron"
)

var builtins = map[string]func() File{
	// Три судна, три стоянки, горизонт 5: стоянка 0 дешёвая только для судна 2.
	"small": func() File {
		return File{
			Name:    "small",
			Horizon: 5,
			Stands:  []string{"0", "1", "2"},
			Aircraft: []AircraftSpec{
				{ID: "0", Arrival: 1, Duration: 3, Costs: []int{1000, 500, 500}},
				{ID: "1", Arrival: 2, Duration: 3, Costs: []int{1000, 500, 500}},
				{ID: "2", Arrival: 0, Duration: 2, Costs: []int{100, 500, 500}},
			},
		}
	},
	// 12 судов, 5 стоянок, горизонт 24, стоимость (i+j+1)*100.
	"large": func() File {
		durations := []int{3, 4, 5, 2, 3, 4, 2, 3, 2, 4, 3, 3}
		f := File{Name: "large", Horizon: 24}
		for j := 0; j < 5; j++ {
			f.Stands = append(f.Stands, fmt.Sprintf("%d", j))
		}
		for i, d := range durations {
			costs := make([]int, 5)
			for j := range costs {
				costs[j] = (i + j + 1) * 100
			}
			f.Aircraft = append(f.Aircraft, AircraftSpec{
				ID:       fmt.Sprintf("%d", i),
				Arrival:  i,
				Duration: d,
				Costs:    costs,
			})
		}
		return f
	},
}

// Builtin возвращает встроенный пример по имени.
func Builtin(name string) (*Scenario, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin scenario %q; available: %v", name, BuiltinNames())
	}
	return mk().Build()
}

func BuiltinNames() []string {
	out := make([]string, 0, len(builtins))
	for k := range builtins {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Random оборачивает случайный экземпляр в сценарий.
func Random(inst *apron.Instance, seed int64) *Scenario {
	return &Scenario{
		Name:     fmt.Sprintf("random-%dx%dx%d-%d", inst.NumAircraft(), inst.NumStands(), inst.Horizon, seed),
		Instance: inst,
	}
}

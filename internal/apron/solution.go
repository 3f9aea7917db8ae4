package apron

import "fmt"

// NoStand обозначает судно, которому стоянка не назначена.
const NoStand = -1

// Assignment — назначение одного судна. Занятые слоты — [Start, End).
type Assignment struct {
	Aircraft int
	Stand    int
	Start    int
	End      int
	Cost     int
}

// Slots возвращает число занятых слотов.
func (a Assignment) Slots() int {
	if a.Stand == NoStand {
		return 0
	}
	return a.End - a.Start
}

// Solution — назначение для каждого судна и суммарная стоимость.
type Solution struct {
	// Assignments индексируется номером судна.
	Assignments []Assignment
	TotalCost   int
}

// Occupancy строит сетку стоянка x слот с номером судна или -1.
func (sol *Solution) Occupancy(inst *Instance) [][]int {
	grid := make([][]int, inst.NumStands())
	for s := range grid {
		row := make([]int, inst.Horizon)
		for t := range row {
			row[t] = -1
		}
		grid[s] = row
	}
	for _, a := range sol.Assignments {
		if a.Stand == NoStand {
			continue
		}
		for t := a.Start; t < a.End && t < inst.Horizon; t++ {
			grid[a.Stand][t] = a.Aircraft
		}
	}
	return grid
}

// Verify независимо от решателя проверяет решение на допустимость
// и пересчитывает его стоимость.
func Verify(inst *Instance, sol *Solution) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if sol == nil {
		return fmt.Errorf("solution is nil")
	}
	if len(sol.Assignments) != inst.NumAircraft() {
		return fmt.Errorf("assignments length must be %d (got %d)", inst.NumAircraft(), len(sol.Assignments))
	}

	owner := make([]int, inst.NumStands()*inst.Horizon)
	for k := range owner {
		owner[k] = -1
	}

	total := 0
	for i, a := range sol.Assignments {
		ac := inst.Aircraft[i]
		if a.Aircraft != i {
			return fmt.Errorf("assignments[%d] refers to aircraft %d", i, a.Aircraft)
		}
		if ac.Duration == 0 {
			if a.Stand != NoStand || a.Cost != 0 {
				return fmt.Errorf("aircraft %s needs no stand but got stand %d cost %d", ac.ID, a.Stand, a.Cost)
			}
			continue
		}
		if a.Stand < 0 || a.Stand >= inst.NumStands() {
			return fmt.Errorf("aircraft %s: stand %d out of range [0,%d)", ac.ID, a.Stand, inst.NumStands())
		}
		if a.Start != ac.Arrival {
			return fmt.Errorf("aircraft %s: start %d differs from arrival %d", ac.ID, a.Start, ac.Arrival)
		}
		if a.Slots() != ac.Duration {
			return fmt.Errorf("aircraft %s: occupies %d slots, duration is %d", ac.ID, a.Slots(), ac.Duration)
		}
		if a.End > inst.Horizon {
			return fmt.Errorf("aircraft %s: occupancy ends at %d beyond horizon %d", ac.ID, a.End, inst.Horizon)
		}
		if a.Cost != inst.Cost(i, a.Stand) {
			return fmt.Errorf("aircraft %s: cost %d, table says %d", ac.ID, a.Cost, inst.Cost(i, a.Stand))
		}
		for t := a.Start; t < a.End; t++ {
			k := a.Stand*inst.Horizon + t
			if owner[k] >= 0 {
				return fmt.Errorf("stand %s slot %d occupied by aircraft %s and %s",
					inst.Stands[a.Stand], t, inst.Aircraft[owner[k]].ID, ac.ID)
			}
			owner[k] = i
		}
		total += a.Cost
	}
	if total != sol.TotalCost {
		return fmt.Errorf("total cost %d, recomputed %d", sol.TotalCost, total)
	}
	return nil
}

package cp

import (
	"errors"
	"fmt"

	"standAlloc/internal/apron"
)

// ErrInternalInconsistency означает, что полное присваивание, принятое
// пропагатором, нарушает непрерывность или длительность стоянки.
// Это дефект пропагатора, а не допустимый результат.
var ErrInternalInconsistency = errors.New("internal inconsistency")

// Extract читает решение из полного присваивания и сверяет каждое
// судно: одна стоянка, непрерывный блок длины Duration с началом в Arrival.
// Ошибка содержит дамп переменных нарушившего судна.
func (md *Model) Extract() (*apron.Solution, error) {
	sol := &apron.Solution{Assignments: make([]apron.Assignment, md.n)}
	for i := range md.inst.Aircraft {
		asg, err := md.extract(i)
		if err != nil {
			return nil, fmt.Errorf("%w\n%s", err, md.dump(i))
		}
		sol.Assignments[i] = asg
		sol.TotalCost += asg.Cost
	}
	return sol, nil
}

func (md *Model) extract(i int) (apron.Assignment, error) {
	a := md.inst.Aircraft[i]
	asg := apron.Assignment{Aircraft: i, Stand: apron.NoStand}
	first, last, count := -1, -1, 0
	for s := 0; s < md.m; s++ {
		for t := 0; t < md.h; t++ {
			switch md.Occ(i, s, t) {
			case Unset:
				return asg, fmt.Errorf("%w: aircraft %s stand %d slot %d left undecided",
					ErrInternalInconsistency, a.ID, s, t)
			case True:
				if asg.Stand != apron.NoStand && asg.Stand != s {
					return asg, fmt.Errorf("%w: aircraft %s occupies stands %d and %d",
						ErrInternalInconsistency, a.ID, asg.Stand, s)
				}
				asg.Stand = s
				if first < 0 {
					first = t
				} else if t != last+1 {
					return asg, fmt.Errorf("%w: aircraft %s leaves stand %d at slot %d and returns at %d",
						ErrInternalInconsistency, a.ID, s, last+1, t)
				}
				last = t
				count++
			}
		}
	}
	if count != a.Duration {
		return asg, fmt.Errorf("%w: aircraft %s occupies %d slots, duration is %d",
			ErrInternalInconsistency, a.ID, count, a.Duration)
	}
	if count > 0 {
		if first != a.Arrival {
			return asg, fmt.Errorf("%w: aircraft %s starts at slot %d, arrival is %d",
				ErrInternalInconsistency, a.ID, first, a.Arrival)
		}
		if md.Use(i, asg.Stand) != True {
			return asg, fmt.Errorf("%w: aircraft %s occupies stand %d without using it",
				ErrInternalInconsistency, a.ID, asg.Stand)
		}
		asg.Start, asg.End = first, last+1
		asg.Cost = md.inst.Cost(i, asg.Stand)
	}
	return asg, nil
}

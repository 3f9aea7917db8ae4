package apron

import "fmt"

// Decoded — результат жадного декодирования перестановки приоритетов.
type Decoded struct {
	Cost int
	// Unplaced — число судов, которым не нашлось свободной стоянки.
	Unplaced int
	// Stands[i] — выбранная стоянка судна i или NoStand.
	Stands []int
}

// Objective сводит стоимость и число неразмещённых судов в одно число для эвристик.
func (d Decoded) Objective(penalty int) int {
	return d.Cost + d.Unplaced*penalty
}

// Decoder размещает суда в порядке приоритета на самую дешёвую свободную стоянку.
// Буферы переиспользуются между вызовами, поэтому Decoder не потокобезопасен.
type Decoder struct {
	inst  *Instance
	owner []bool
	// Penalty — штраф за одно неразмещённое судно.
	Penalty int
}

// NewDecoder готовит декодер с буферами под экземпляр; штраф за
// неразмещённое судно больше любой суммы стоимостей.
func NewDecoder(inst *Instance) (*Decoder, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	maxCost := 0
	for _, row := range inst.Costs {
		for _, c := range row {
			if c > maxCost {
				maxCost = c
			}
		}
	}
	return &Decoder{
		inst:    inst,
		owner:   make([]bool, inst.NumStands()*inst.Horizon),
		Penalty: (maxCost + 1) * (inst.NumAircraft() + 1),
	}, nil
}

// Decode возвращает ошибку, если perm не перестановка номеров судов.
func (d *Decoder) Decode(perm []int) (Decoded, error) {
	if d == nil || d.inst == nil {
		return Decoded{}, fmt.Errorf("nil decoder")
	}
	if err := ValidatePermutation(perm, d.inst.NumAircraft()); err != nil {
		return Decoded{}, err
	}

	for k := range d.owner {
		d.owner[k] = false
	}

	h := d.inst.Horizon
	out := Decoded{Stands: make([]int, d.inst.NumAircraft())}
	for _, i := range perm {
		out.Stands[i] = NoStand
		if d.inst.Aircraft[i].Duration == 0 {
			continue
		}
		if !d.inst.Fits(i) {
			out.Unplaced++
			continue
		}
		start, end := d.inst.Window(i)
		best := NoStand
		for s := 0; s < d.inst.NumStands(); s++ {
			if best != NoStand && d.inst.Cost(i, s) >= d.inst.Cost(i, best) {
				continue
			}
			free := true
			for t := start; t < end; t++ {
				if d.owner[s*h+t] {
					free = false
					break
				}
			}
			if free {
				best = s
			}
		}
		if best == NoStand {
			out.Unplaced++
			continue
		}
		for t := start; t < end; t++ {
			d.owner[best*h+t] = true
		}
		out.Stands[i] = best
		out.Cost += d.inst.Cost(i, best)
	}
	return out, nil
}

func (d *Decoder) MustDecode(perm []int) Decoded {
	dec, err := d.Decode(perm)
	if err != nil {
		panic(err)
	}
	return dec
}

// Solution превращает полное декодирование в решение.
func (d *Decoder) Solution(dec Decoded) (*Solution, error) {
	if dec.Unplaced > 0 {
		return nil, fmt.Errorf("%d aircraft left without a stand", dec.Unplaced)
	}
	sol := &Solution{Assignments: make([]Assignment, d.inst.NumAircraft())}
	for i, s := range dec.Stands {
		a := Assignment{Aircraft: i, Stand: s}
		if s != NoStand {
			a.Start, a.End = d.inst.Window(i)
			a.Cost = d.inst.Cost(i, s)
			sol.TotalCost += a.Cost
		}
		sol.Assignments[i] = a
	}
	return sol, nil
}

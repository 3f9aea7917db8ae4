package apron

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

// ErrInvalidInstance оборачивает любые ошибки формы входных данных.
var ErrInvalidInstance = errors.New("invalid instance")

// Aircraft описывает одно воздушное судно.
type Aircraft struct {
	ID string
	// Arrival — первый слот, в котором судно может занять стоянку.
	Arrival int
	// Duration — точное число подряд идущих слотов на стоянке; 0 — стоянка не нужна.
	Duration int
}

// Instance — неизменяемый экземпляр задачи: горизонт, суда, стоянки и стоимости.
type Instance struct {
	Horizon  int
	Aircraft []Aircraft
	Stands   []string
	// Costs[i][s] — стоимость размещения судна i на стоянке s.
	// Размер должен быть len(Aircraft) x len(Stands).
	Costs [][]int
}

func NewInstance(horizon int, stands []string, aircraft []Aircraft, costs [][]int) (*Instance, error) {
	inst := &Instance{Horizon: horizon, Aircraft: aircraft, Stands: stands, Costs: costs}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// FromTables собирает экземпляр из параллельных списков, идентификаторы — порядковые номера.
func FromTables(stands, horizon int, arrivals, durations []int, costs [][]int) (*Instance, error) {
	if len(arrivals) != len(durations) {
		return nil, fmt.Errorf("%w: arrivals and durations lengths differ (%d != %d)",
			ErrInvalidInstance, len(arrivals), len(durations))
	}
	if stands < 0 {
		return nil, fmt.Errorf("%w: stands must be >= 0 (got %d)", ErrInvalidInstance, stands)
	}
	ids := make([]string, stands)
	for s := range ids {
		ids[s] = strconv.Itoa(s)
	}
	ac := make([]Aircraft, len(arrivals))
	for i := range ac {
		ac[i] = Aircraft{ID: strconv.Itoa(i), Arrival: arrivals[i], Duration: durations[i]}
	}
	return NewInstance(horizon, ids, ac, costs)
}

// Validate проверяет форму экземпляра; ошибки оборачивают ErrInvalidInstance.
func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("%w: instance is nil", ErrInvalidInstance)
	}
	if inst.Horizon < 0 {
		return fmt.Errorf("%w: horizon must be >= 0 (got %d)", ErrInvalidInstance, inst.Horizon)
	}
	if len(inst.Costs) != len(inst.Aircraft) {
		return fmt.Errorf("%w: costs must have one row per aircraft=%d (got %d)",
			ErrInvalidInstance, len(inst.Aircraft), len(inst.Costs))
	}
	for i, a := range inst.Aircraft {
		if a.Arrival < 0 {
			return fmt.Errorf("%w: aircraft[%d].arrival must be >= 0 (got %d)", ErrInvalidInstance, i, a.Arrival)
		}
		if a.Duration < 0 {
			return fmt.Errorf("%w: aircraft[%d].duration must be >= 0 (got %d)", ErrInvalidInstance, i, a.Duration)
		}
		row := inst.Costs[i]
		if len(row) != len(inst.Stands) {
			return fmt.Errorf("%w: costs[%d] length must be stands=%d (got %d)",
				ErrInvalidInstance, i, len(inst.Stands), len(row))
		}
		for s, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: costs[%d][%d] must be >= 0 (got %d)", ErrInvalidInstance, i, s, v)
			}
		}
	}
	return nil
}

func (inst *Instance) NumAircraft() int { return len(inst.Aircraft) }

func (inst *Instance) NumStands() int { return len(inst.Stands) }

func (inst *Instance) Cost(aircraft, stand int) int {
	return inst.Costs[aircraft][stand]
}

// Window возвращает полуинтервал слотов [start, end), который судно обязано занять.
func (inst *Instance) Window(aircraft int) (start, end int) {
	a := inst.Aircraft[aircraft]
	return a.Arrival, a.Arrival + a.Duration
}

// Fits сообщает, помещается ли окно стоянки судна в горизонт.
func (inst *Instance) Fits(aircraft int) bool {
	a := inst.Aircraft[aircraft]
	if a.Duration == 0 {
		return true
	}
	return a.Arrival+a.Duration <= inst.Horizon
}

// Overruns возвращает индексы судов, чьё окно выходит за горизонт.
// Такие экземпляры допустимы на входе, но заведомо неразрешимы.
func (inst *Instance) Overruns() []int {
	var out []int
	for i := range inst.Aircraft {
		if !inst.Fits(i) {
			out = append(out, i)
		}
	}
	return out
}

// WithStand возвращает копию экземпляра с добавленной стоянкой.
// costs содержит стоимость новой стоянки для каждого судна.
func (inst *Instance) WithStand(id string, costs []int) (*Instance, error) {
	if len(costs) != len(inst.Aircraft) {
		return nil, fmt.Errorf("%w: stand costs length must be aircraft=%d (got %d)",
			ErrInvalidInstance, len(inst.Aircraft), len(costs))
	}
	stands := append(append([]string(nil), inst.Stands...), id)
	table := make([][]int, len(inst.Costs))
	for i, row := range inst.Costs {
		table[i] = append(append([]int(nil), row...), costs[i])
	}
	ac := append([]Aircraft(nil), inst.Aircraft...)
	return NewInstance(inst.Horizon, stands, ac, table)
}

// RandomInstance генерирует экземпляр, в котором окно каждого судна помещается в горизонт.
func RandomInstance(aircraft, stands, horizon, maxDuration, minCost, maxCost int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if horizon <= 0 || maxDuration <= 0 {
		panic("invalid horizon or duration bounds")
	}
	if minCost < 0 || maxCost < 0 || maxCost < minCost {
		panic("invalid cost bounds")
	}
	if maxDuration > horizon {
		maxDuration = horizon
	}
	arrivals := make([]int, aircraft)
	durations := make([]int, aircraft)
	costs := make([][]int, aircraft)
	span := maxCost - minCost + 1
	for i := 0; i < aircraft; i++ {
		d := 1 + rng.Intn(maxDuration)
		durations[i] = d
		arrivals[i] = rng.Intn(horizon - d + 1)
		row := make([]int, stands)
		for s := range row {
			row[s] = minCost
			if span > 1 {
				row[s] += rng.Intn(span)
			}
		}
		costs[i] = row
	}
	inst, err := FromTables(stands, horizon, arrivals, durations, costs)
	if err != nil {
		panic(err)
	}
	return inst
}

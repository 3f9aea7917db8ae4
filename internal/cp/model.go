// Package cp содержит модель ограничений размещения судов на стоянках
// и пропагатор, поддерживающий её согласованность во время поиска.
//
// Переменные модели булевы и хранятся в трёхзначном виде (Unset/False/True):
//
//	X[i][s][t] — судно i занимает стоянку s в слоте t (занятость);
//	Y[i][s]    — судно i использует стоянку s хотя бы в одном слоте.
//
// Значения меняются только из Unset, каждое изменение пишется в trail,
// откат к отметке восстанавливает Unset. Благодаря этому одна модель
// обслуживает весь обход дерева поиска одного потока.
package cp

import (
	"fmt"

	"standAlloc/internal/apron"
)

// Tri — значение булевой переменной модели, ещё не решённой или решённой.
type Tri int8

const (
	Unset Tri = iota
	False
	True
)

func (v Tri) String() string {
	switch v {
	case False:
		return "0"
	case True:
		return "1"
	default:
		return "?"
	}
}

type varKind uint8

const (
	kindOcc varKind = iota
	kindUse
)

type ref struct {
	kind varKind
	idx  int
}

// Model — переменные X и Y одного экземпляра с журналом изменений.
// Не безопасна для параллельного использования, потокам нужна Clone.
type Model struct {
	inst *apron.Instance
	n    int
	m    int
	h    int

	occ []Tri // X, индекс (i*m+s)*h+t
	use []Tri // Y, индекс i*m+s

	trail []ref
	queue []ref
	head  int

	// Propagations — число обработанных событий пропагатора.
	Propagations int
}

// New создаёт модель со всеми переменными в Unset. Корневые ограничения
// накладывает Post.
func New(inst *apron.Instance) (*Model, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	n, m, h := inst.NumAircraft(), inst.NumStands(), inst.Horizon
	return &Model{
		inst:  inst,
		n:     n,
		m:     m,
		h:     h,
		occ:   make([]Tri, n*m*h),
		use:   make([]Tri, n*m),
		trail: make([]ref, 0, n*m*h),
	}, nil
}

func (md *Model) Instance() *apron.Instance { return md.inst }

// Post накладывает ограничения, не зависящие от ветвления, и доводит
// модель до неподвижной точки. false означает, что экземпляр неразрешим.
func (md *Model) Post() bool {
	for i, a := range md.inst.Aircraft {
		// Занятость до прибытия запрещена.
		before := min(a.Arrival, md.h)
		for s := 0; s < md.m; s++ {
			for t := 0; t < before; t++ {
				if !md.setOcc(i, s, t, False) {
					return md.fail()
				}
			}
		}
		if a.Duration == 0 {
			for s := 0; s < md.m; s++ {
				if !md.setUse(i, s, False) {
					return md.fail()
				}
			}
			continue
		}
		// Окно стоянки должно целиком помещаться в горизонт,
		// иначе судно не может занять стоянку в момент прибытия.
		if !md.inst.Fits(i) || md.m == 0 {
			return md.fail()
		}
	}
	return md.propagate()
}

// Assign фиксирует Y[i][s]=1 и запускает пропагацию.
// При false модель нужно откатить к отметке, сделанной до вызова.
func (md *Model) Assign(aircraft, stand int) bool {
	if !md.setUse(aircraft, stand, True) {
		return md.fail()
	}
	return md.propagate()
}

// Forbid фиксирует Y[i][s]=0 и запускает пропагацию.
func (md *Model) Forbid(aircraft, stand int) bool {
	if !md.setUse(aircraft, stand, False) {
		return md.fail()
	}
	return md.propagate()
}

// Mark возвращает отметку trail для последующего Undo.
func (md *Model) Mark() int { return len(md.trail) }

func (md *Model) Undo(mark int) {
	for k := len(md.trail) - 1; k >= mark; k-- {
		r := md.trail[k]
		if r.kind == kindOcc {
			md.occ[r.idx] = Unset
		} else {
			md.use[r.idx] = Unset
		}
	}
	md.trail = md.trail[:mark]
}

// Clone возвращает независимую копию текущего состояния с пустым trail.
func (md *Model) Clone() *Model {
	c := &Model{
		inst:  md.inst,
		n:     md.n,
		m:     md.m,
		h:     md.h,
		occ:   append([]Tri(nil), md.occ...),
		use:   append([]Tri(nil), md.use...),
		trail: make([]ref, 0, cap(md.trail)),
	}
	return c
}

func (md *Model) Occ(aircraft, stand, slot int) Tri {
	return md.occ[md.occIdx(aircraft, stand, slot)]
}

func (md *Model) Use(aircraft, stand int) Tri {
	return md.use[aircraft*md.m+stand]
}

// Stand возвращает стоянку, зафиксированную за судном, или apron.NoStand.
func (md *Model) Stand(aircraft int) int {
	row := md.use[aircraft*md.m : (aircraft+1)*md.m]
	for s, v := range row {
		if v == True {
			return s
		}
	}
	return apron.NoStand
}

// Options дописывает в buf стоянки, которые судно ещё может использовать.
func (md *Model) Options(aircraft int, buf []int) []int {
	buf = buf[:0]
	row := md.use[aircraft*md.m : (aircraft+1)*md.m]
	for s, v := range row {
		if v != False {
			buf = append(buf, s)
		}
	}
	return buf
}

// Count — число стоянок, которые судно ещё может использовать.
func (md *Model) Count(aircraft int) int {
	c := 0
	for _, v := range md.use[aircraft*md.m : (aircraft+1)*md.m] {
		if v != False {
			c++
		}
	}
	return c
}

// Resolved сообщает, что выбор стоянки для судна уже сделан
// (или судну стоянка не нужна).
func (md *Model) Resolved(aircraft int) bool {
	if md.inst.Aircraft[aircraft].Duration == 0 {
		return true
	}
	return md.Stand(aircraft) != apron.NoStand
}

func (md *Model) Complete() bool {
	for i := 0; i < md.n; i++ {
		if !md.Resolved(i) {
			return false
		}
	}
	return true
}

// dump печатает переменные одного судна.
func (md *Model) dump(aircraft int) string {
	out := fmt.Sprintf("aircraft %s:", md.inst.Aircraft[aircraft].ID)
	for s := 0; s < md.m; s++ {
		out += fmt.Sprintf("\n  Y[%d]=%s X=", s, md.Use(aircraft, s))
		for t := 0; t < md.h; t++ {
			out += md.Occ(aircraft, s, t).String()
		}
	}
	return out
}

func (md *Model) occIdx(aircraft, stand, slot int) int {
	return (aircraft*md.m+stand)*md.h + slot
}

func (md *Model) splitOcc(idx int) (aircraft, stand, slot int) {
	slot = idx % md.h
	idx /= md.h
	return idx / md.m, idx % md.m, slot
}

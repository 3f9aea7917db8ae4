package apron

import (
	"fmt"
	"math/rand"
)

// ValidatePermutation проверяет, что perm — перестановка номеров судов 0..n-1.
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("permutation length must be %d (got %d)", n, len(perm))
	}
	seen := make([]bool, n)
	for i, v := range perm {
		if v < 0 || v >= n {
			return fmt.Errorf("perm[%d]=%d out of range [0,%d)", i, v, n)
		}
		if seen[v] {
			return fmt.Errorf("duplicate aircraft id %d in permutation", v)
		}
		seen[v] = true
	}
	return nil
}

// Priority — порядок, в котором декодер размещает суда: первое судно
// выбирает стоянку раньше остальных.
type Priority []int

// Identity — приоритет по номерам судов.
func Identity(n int) Priority {
	p := make(Priority, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Shuffled — случайный приоритет (Фишер–Йейтс).
func Shuffled(n int, rng *rand.Rand) Priority {
	p := Identity(n)
	rng.Shuffle(n, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// Neighborhood — тип хода по приоритетам.
type Neighborhood string

const (
	// Swap меняет местами два судна.
	Swap Neighborhood = "swap"
	// Insert переносит судно на другую позицию со сдвигом остальных.
	Insert Neighborhood = "insert"
)

func (nb Neighborhood) Validate() error {
	switch nb {
	case Swap, Insert:
		return nil
	}
	return fmt.Errorf("неизвестный тип окрестности %q", nb)
}

// Move — ход между позициями from и to, from != to.
type Move struct {
	From, To int
}

// RandomMove выбирает ход для приоритета длины n >= 2.
func RandomMove(n int, rng *rand.Rand) Move {
	from := rng.Intn(n)
	to := rng.Intn(n - 1)
	if to >= from {
		to++
	}
	return Move{From: from, To: to}
}

// Reverse — ход, отменяющий m.
func (m Move) Reverse() Move {
	return Move{From: m.To, To: m.From}
}

// Apply применяет ход к p на месте.
func (nb Neighborhood) Apply(p Priority, m Move) {
	if m.From == m.To {
		return
	}
	if nb == Swap {
		p[m.From], p[m.To] = p[m.To], p[m.From]
		return
	}
	ac := p[m.From]
	if m.From < m.To {
		copy(p[m.From:m.To], p[m.From+1:m.To+1])
	} else {
		copy(p[m.To+1:m.From+1], p[m.To:m.From])
	}
	p[m.To] = ac
}

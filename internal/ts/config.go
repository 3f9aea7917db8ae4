package ts

import (
	"fmt"

	"standAlloc/internal/apron"
)

type Config struct {
	// Iterations — общее число итераций; 0 — IterationsPerAircraft на судно.
	Iterations            int
	IterationsPerAircraft int

	// TabuTenure — срок запрета обратного хода, к нему добавляется
	// случайное число из [0, TabuTenureRand].
	TabuTenure     int
	TabuTenureRand int

	// NeighborsPerIter — сколько случайных ходов оценивается за итерацию.
	NeighborsPerIter int

	Neighborhood apron.Neighborhood

	// MaxStall останавливает поиск после стольких итераций без улучшения рекорда; 0 — не останавливать.
	MaxStall int
}

func DefaultConfig() Config {
	return Config{
		IterationsPerAircraft: 120,
		TabuTenure:            5,
		TabuTenureRand:        2,
		NeighborsPerIter:      40,
		Neighborhood:          apron.Insert,
	}
}

func (c Config) budget(aircraft int) int {
	if c.Iterations > 0 {
		return c.Iterations
	}
	return c.IterationsPerAircraft * aircraft
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerAircraft <= 0 {
		return fmt.Errorf("должно быть задано Iterations > 0 или IterationsPerAircraft > 0")
	}
	if c.TabuTenure <= 0 {
		return fmt.Errorf("TabuTenure должно быть > 0 (получено %d)", c.TabuTenure)
	}
	if c.TabuTenureRand < 0 {
		return fmt.Errorf("TabuTenureRand должно быть >= 0 (получено %d)", c.TabuTenureRand)
	}
	if c.NeighborsPerIter <= 0 {
		return fmt.Errorf("NeighborsPerIter должно быть > 0 (получено %d)", c.NeighborsPerIter)
	}
	if c.MaxStall < 0 {
		return fmt.Errorf("MaxStall должно быть >= 0 (получено %d)", c.MaxStall)
	}
	return c.Neighborhood.Validate()
}

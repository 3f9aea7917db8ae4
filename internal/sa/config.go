package sa

import (
	"fmt"

	"standAlloc/internal/apron"
)

type Config struct {
	// Iterations — общее число итераций; 0 — IterationsPerAircraft на судно.
	Iterations            int
	IterationsPerAircraft int

	// Температура умножается на Alpha после каждой итерации,
	// поиск заканчивается, когда она опускается до FinalTemp.
	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood apron.Neighborhood
}

func DefaultConfig() Config {
	return Config{
		IterationsPerAircraft: 1500,
		InitialTemp:           500.0,
		FinalTemp:             0.1,
		Alpha:                 0.998,
		Neighborhood:          apron.Swap,
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
	if c.InitialTemp <= 0 {
		return fmt.Errorf("InitialTemp должно быть > 0 (получено %f)", c.InitialTemp)
	}
	if c.FinalTemp <= 0 || c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf("FinalTemp должно лежать в интервале (0, InitialTemp) (получено %f)", c.FinalTemp)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha должно лежать в интервале (0,1) (получено %f)", c.Alpha)
	}
	return c.Neighborhood.Validate()
}

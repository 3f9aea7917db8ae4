package bnb

import (
	"fmt"
	"time"
)

type Config struct {
	// Workers — число потоков, делящих ветви первого выбранного судна.
	// 1 — последовательный поиск.
	Workers int

	// TimeLimit ограничивает время поиска; 0 — без ограничения.
	TimeLimit time.Duration

	// NodeLimit ограничивает число ветвлений; 0 — без ограничения.
	NodeLimit int
}

func DefaultConfig() Config {
	return Config{
		Workers:   1,
		TimeLimit: 0,
		NodeLimit: 0,
	}
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf(
			"Workers должно быть >= 1 (получено %d)",
			c.Workers,
		)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf(
			"TimeLimit должно быть >= 0 (получено %s)",
			c.TimeLimit,
		)
	}
	if c.NodeLimit < 0 {
		return fmt.Errorf(
			"NodeLimit должно быть >= 0 (получено %d)",
			c.NodeLimit,
		)
	}
	return nil
}

package bench

import "math"

// Stats — сводка по выборке: лучшее (минимум), среднее и выборочное СКО.
type Stats[T int | float64] struct {
	N    int
	Best T
	Mean float64
	Std  float64
}

// Calc считает сводку; для пустой выборки возвращается только N = 0.
func Calc[T int | float64](values []T) Stats[T] {
	s := Stats[T]{N: len(values)}
	if s.N == 0 {
		return s
	}

	s.Best = values[0]
	sum := 0.0
	for _, v := range values {
		s.Best = min(s.Best, v)
		sum += float64(v)
	}
	s.Mean = sum / float64(s.N)

	// Для одного запуска разброс считаем нулевым.
	if s.N >= 2 {
		variance := 0.0
		for _, v := range values {
			d := float64(v) - s.Mean
			variance += d * d
		}
		s.Std = math.Sqrt(variance / float64(s.N-1))
	}
	return s
}

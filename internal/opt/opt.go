package opt

import (
	"context"
	"time"

	"standAlloc/internal/apron"
	"standAlloc/internal/cp"
)

// Optimizer — общий интерфейс точного поиска и эвристик.
type Optimizer interface {
	Solve(ctx context.Context, inst *apron.Instance) (Result, error)
}

// Ошибки, видимые вызывающему. Неразрешимость и исчерпание бюджета
// ошибками не являются и передаются через Result.Status.
var (
	ErrInvalidInstance       = apron.ErrInvalidInstance
	ErrInternalInconsistency = cp.ErrInternalInconsistency
)

// Status — итог поиска.
type Status string

const (
	// StatusOptimal — решение найдено и оптимальность доказана.
	StatusOptimal Status = "optimal"
	// StatusFeasible — решение найдено, оптимальность не доказана.
	StatusFeasible Status = "feasible"
	// StatusInfeasible — доказано, что допустимого решения нет.
	StatusInfeasible Status = "infeasible"
	// StatusUnknown — поиск остановлен до первого решения.
	StatusUnknown Status = "unknown"
)

// StopReason — причина досрочной остановки поиска.
type StopReason string

const (
	StopNone StopReason = ""
	// StopContext — ctx вызывающего отменён (прерывание, внешний таймаут).
	StopContext   StopReason = "context"
	StopTimeLimit StopReason = "time_limit"
	StopNodeLimit StopReason = "node_limit"
)

// Result — результат одного запуска. Solution == nil, если допустимое
// решение не найдено.
type Result struct {
	Status   Status
	Solution *apron.Solution
	Cost     int
	// Proven — true для доказанной оптимальности или неразрешимости.
	Proven  bool
	Stopped StopReason

	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}

// Feasible сообщает, что в результате есть допустимое решение.
func (r Result) Feasible() bool {
	return r.Solution != nil
}

// FromPriority декодирует лучший приоритет эвристики в результат.
// Если хотя бы одно судно осталось без стоянки, решения нет и статус
// StatusUnknown: эвристика не доказывает неразрешимость.
func FromPriority(dec *apron.Decoder, best apron.Priority, start time.Time, meta map[string]any) (Result, error) {
	d, err := dec.Decode(best)
	if err != nil {
		return Result{}, err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	res := Result{
		Status:   StatusUnknown,
		Duration: time.Since(start),
		Meta:     meta,
	}
	if d.Unplaced > 0 {
		meta["unplaced"] = d.Unplaced
		return res, nil
	}
	sol, err := dec.Solution(d)
	if err != nil {
		return Result{}, err
	}
	res.Status = StatusFeasible
	res.Solution = sol
	res.Cost = sol.TotalCost
	return res, nil
}

package bnb

import "github.com/rs/zerolog"

// Event описывает одно решение поиска.
type Event struct {
	// Branch — номер ветви первого выбранного судна, которой принадлежит узел.
	Branch   int
	Depth    int
	Aircraft int
	Stand    int
	// Bound — нижняя оценка после пропагации, -1 если не вычислялась.
	Bound int
	// Incumbent — стоимость лучшего решения на момент события, -1 если его нет.
	Incumbent int
}

// Observer получает события поиска. В параллельном режиме методы
// вызываются из нескольких горутин одновременно. Incumbent вызывается
// под блокировкой рекорда, строго в порядке принятия решений, и не должен
// обращаться к солверу.
type Observer interface {
	Branch(ev Event)
	Fail(ev Event)
	Prune(ev Event)
	Incumbent(ev Event)
}

// NopObserver игнорирует все события.
type NopObserver struct{}

func (NopObserver) Branch(Event)    {}
func (NopObserver) Fail(Event)      {}
func (NopObserver) Prune(Event)     {}
func (NopObserver) Incumbent(Event) {}

type multiObserver []Observer

// Observers объединяет наблюдателей, nil пропускаются.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return NopObserver{}
	case 1:
		return out[0]
	}
	return out
}

func (m multiObserver) Branch(ev Event) {
	for _, o := range m {
		o.Branch(ev)
	}
}

func (m multiObserver) Fail(ev Event) {
	for _, o := range m {
		o.Fail(ev)
	}
}

func (m multiObserver) Prune(ev Event) {
	for _, o := range m {
		o.Prune(ev)
	}
}

func (m multiObserver) Incumbent(ev Event) {
	for _, o := range m {
		o.Incumbent(ev)
	}
}

// LogObserver пишет события в zerolog: ветвления на уровне trace,
// новые рекорды на уровне debug.
type LogObserver struct {
	Logger zerolog.Logger
}

func (l LogObserver) Branch(ev Event) {
	l.Logger.Trace().
		Int("branch", ev.Branch).
		Int("depth", ev.Depth).
		Int("aircraft", ev.Aircraft).
		Int("stand", ev.Stand).
		Msg("branch")
}

func (l LogObserver) Fail(ev Event) {
	l.Logger.Trace().
		Int("depth", ev.Depth).
		Int("aircraft", ev.Aircraft).
		Int("stand", ev.Stand).
		Msg("propagation failed")
}

func (l LogObserver) Prune(ev Event) {
	l.Logger.Trace().
		Int("depth", ev.Depth).
		Int("bound", ev.Bound).
		Int("incumbent", ev.Incumbent).
		Msg("pruned")
}

func (l LogObserver) Incumbent(ev Event) {
	l.Logger.Debug().
		Int("branch", ev.Branch).
		Int("depth", ev.Depth).
		Int("cost", ev.Incumbent).
		Msg("new incumbent")
}

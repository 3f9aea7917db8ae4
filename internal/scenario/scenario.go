// Package scenario читает экземпляры задачи из YAML и содержит встроенные примеры.
//
// Формат файла:
//
//	name: small
//	horizon: 5
//	stands: [A, B, C]
//	aircraft:
//	  - id: PR-ABC
//	    arrival: 1
//	    duration: 3
//	    costs: [1000, 500, 500]
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"standAlloc/internal/apron"
)

type File struct {
	Name     string         `yaml:"name"`
	Horizon  int            `yaml:"horizon"`
	Stands   []string       `yaml:"stands"`
	Aircraft []AircraftSpec `yaml:"aircraft"`
}

type AircraftSpec struct {
	ID       string `yaml:"id"`
	Arrival  int    `yaml:"arrival"`
	Duration int    `yaml:"duration"`
	Costs    []int  `yaml:"costs"`
}

// Scenario — проверенный экземпляр с именем.
type Scenario struct {
	Name     string
	Instance *apron.Instance
	// Warnings — замечания к данным, не мешающие решению.
	Warnings []string
}

func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode читает сценарий из YAML; неизвестные поля считаются ошибкой.
func Decode(r io.Reader) (*Scenario, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return f.Build()
}

// Build проверяет форму данных и собирает экземпляр.
// Длительность больше горизонта отвергается здесь, на входе; окно,
// выходящее за горизонт, лишь даёт предупреждение — решатель докажет неразрешимость.
func (f File) Build() (*Scenario, error) {
	ac := make([]apron.Aircraft, len(f.Aircraft))
	costs := make([][]int, len(f.Aircraft))
	seen := make(map[string]bool, len(f.Aircraft))
	for i, a := range f.Aircraft {
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate aircraft id %q", apron.ErrInvalidInstance, id)
		}
		seen[id] = true
		if a.Duration > f.Horizon {
			return nil, fmt.Errorf("%w: aircraft %q duration %d exceeds horizon %d",
				apron.ErrInvalidInstance, id, a.Duration, f.Horizon)
		}
		ac[i] = apron.Aircraft{ID: id, Arrival: a.Arrival, Duration: a.Duration}
		costs[i] = a.Costs
	}
	stands := make(map[string]bool, len(f.Stands))
	for _, s := range f.Stands {
		if stands[s] {
			return nil, fmt.Errorf("%w: duplicate stand id %q", apron.ErrInvalidInstance, s)
		}
		stands[s] = true
	}

	inst, err := apron.NewInstance(f.Horizon, f.Stands, ac, costs)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{Name: f.Name, Instance: inst}
	for _, i := range inst.Overruns() {
		a := inst.Aircraft[i]
		sc.Warnings = append(sc.Warnings, fmt.Sprintf(
			"aircraft %s cannot complete duration %d arriving at %d within horizon %d",
			a.ID, a.Duration, a.Arrival, inst.Horizon))
	}
	return sc, nil
}

// Encode пишет экземпляр обратно в формат файла.
func Encode(w io.Writer, name string, inst *apron.Instance) error {
	f := File{Name: name, Horizon: inst.Horizon, Stands: inst.Stands}
	for i, a := range inst.Aircraft {
		f.Aircraft = append(f.Aircraft, AircraftSpec{
			ID:       a.ID,
			Arrival:  a.Arrival,
			Duration: a.Duration,
			Costs:    inst.Costs[i],
		})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

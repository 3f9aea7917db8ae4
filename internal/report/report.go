// Package report печатает результат решателя: таблица для консоли или YAML.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

// Table печатает статус, назначения, использование стоянок и сетку занятости.
func Table(w io.Writer, inst *apron.Instance, res opt.Result) error {
	fmt.Fprintf(w, "Статус: %s", res.Status)
	if res.Stopped != opt.StopNone {
		fmt.Fprintf(w, " (остановлен: %s)", res.Stopped)
	}
	fmt.Fprintln(w)
	if res.Solution == nil {
		if res.Status == opt.StatusInfeasible {
			fmt.Fprintln(w, "Допустимого размещения не существует.")
		} else {
			fmt.Fprintln(w, "Решение не найдено.")
		}
		return nil
	}
	fmt.Fprintf(w, "Общая стоимость: %d\n\n", res.Cost)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AIRCRAFT\tSTAND\tSLOTS\tCOST")
	for _, a := range res.Solution.Assignments {
		id := inst.Aircraft[a.Aircraft].ID
		if a.Stand == apron.NoStand {
			fmt.Fprintf(tw, "%s\t-\t-\t0\n", id)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t[%d,%d)\t%d\n", id, inst.Stands[a.Stand], a.Start, a.End, a.Cost)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return Timeline(w, inst, res.Solution)
}

// Timeline печатает по строке на стоянку: номер судна в занятых слотах, '.' в свободных.
func Timeline(w io.Writer, inst *apron.Instance, sol *apron.Solution) error {
	grid := sol.Occupancy(inst)
	width := 1
	for _, a := range inst.Aircraft {
		width = max(width, len(a.ID))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	header := make([]string, inst.Horizon)
	for t := range header {
		header[t] = pad(fmt.Sprint(t), width)
	}
	fmt.Fprintf(tw, "STAND\t%s\n", strings.Join(header, " "))
	for s, row := range grid {
		cells := make([]string, len(row))
		for t, owner := range row {
			if owner < 0 {
				cells[t] = pad(".", width)
			} else {
				cells[t] = pad(inst.Aircraft[owner].ID, width)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", inst.Stands[s], strings.Join(cells, " "))
	}
	return tw.Flush()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

type yamlResult struct {
	Status      opt.Status       `yaml:"status"`
	Proven      bool             `yaml:"proven"`
	Stopped     opt.StopReason   `yaml:"stopped,omitempty"`
	Cost        *int             `yaml:"cost,omitempty"`
	Nodes       int              `yaml:"nodes"`
	DurationMs  float64          `yaml:"duration_ms"`
	Assignments []yamlAssignment `yaml:"assignments,omitempty"`
}

type yamlAssignment struct {
	Aircraft string `yaml:"aircraft"`
	Stand    string `yaml:"stand,omitempty"`
	Start    *int   `yaml:"start,omitempty"`
	End      *int   `yaml:"end,omitempty"`
	Cost     int    `yaml:"cost"`
}

// YAML пишет результат в машиночитаемом виде.
func YAML(w io.Writer, inst *apron.Instance, res opt.Result) error {
	out := yamlResult{
		Status:     res.Status,
		Proven:     res.Proven,
		Stopped:    res.Stopped,
		Nodes:      res.Iterations,
		DurationMs: float64(res.Duration.Microseconds()) / 1000.0,
	}
	if res.Solution != nil {
		cost := res.Cost
		out.Cost = &cost
		for _, a := range res.Solution.Assignments {
			ya := yamlAssignment{Aircraft: inst.Aircraft[a.Aircraft].ID, Cost: a.Cost}
			if a.Stand != apron.NoStand {
				start, end := a.Start, a.End
				ya.Stand = inst.Stands[a.Stand]
				ya.Start, ya.End = &start, &end
			}
			out.Assignments = append(out.Assignments, ya)
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return enc.Close()
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"standAlloc/internal/store"
)

var runsOpts struct {
	limit int
	show  string
	bench string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Показать сохранённые запуски",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsOpts.limit, "limit", 20, "сколько последних запусков показать")
	runsCmd.Flags().StringVar(&runsOpts.show, "show", "", "ID запуска, назначения которого нужно вывести")
	runsCmd.Flags().StringVar(&runsOpts.bench, "bench", "", "ID пакета бенчмарка, сводку которого нужно вывести")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("хранилище выключено: db_path не задан")
	}
	defer db.Close()

	if runsOpts.bench != "" {
		return showBench(os.Stdout, db, runsOpts.bench)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	if runsOpts.show != "" {
		rows, err := db.Assignments(runsOpts.show)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "AIRCRAFT\tSTAND\tSLOTS\tCOST")
		for _, r := range rows {
			if !r.Stand.Valid {
				fmt.Fprintf(tw, "%s\t-\t-\t%d\n", r.Aircraft, r.Cost)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t[%d,%d)\t%d\n", r.Aircraft, r.Stand.String, r.Start.Int64, r.End.Int64, r.Cost)
		}
		return tw.Flush()
	}

	runs, err := db.Runs(runsOpts.limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tCREATED\tINSTANCE\tALGO\tSIZE\tSTATUS\tCOST\tNODES\tMS")
	for _, r := range runs {
		cost := "-"
		if r.Cost.Valid {
			cost = fmt.Sprint(r.Cost.Int64)
		}
		status := string(r.Status)
		if r.Stopped != "" {
			status += " (" + string(r.Stopped) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dx%dx%d\t%s\t%s\t%d\t%.1f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Instance, r.Algo,
			r.Aircraft, r.Stands, r.Horizon, status, cost, r.Nodes, r.DurationMs)
	}
	return tw.Flush()
}

// showBench печатает сводку сохранённого пакета бенчмарка.
func showBench(w io.Writer, repo store.Repository, batchID string) error {
	rows, err := repo.Bench(batchID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("пакет бенчмарка %q не найден", batchID)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGO\tSIZE\tRUNS\tFEASIBLE\tOPTIMAL\tCOST_BEST\tCOST_MEAN\tTIME_MEAN_MS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%dx%dx%d\t%d\t%d\t%d\t%d\t%.1f\t%.2f\n",
			r.Algo, r.Aircraft, r.Stands, r.Horizon, r.Runs, r.Feasible, r.Optimal,
			r.CostBest, r.CostMean, r.TimeMeanMs)
	}
	return tw.Flush()
}

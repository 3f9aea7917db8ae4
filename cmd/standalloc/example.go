package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"standAlloc/internal/scenario"
)

var exampleCmd = &cobra.Command{
	Use:   "example [name]",
	Short: "Вывести встроенный пример в формате YAML",
	Long: "Печатает встроенный экземпляр как файл сценария; без аргумента выводит список имён.\n" +
		"Вывод можно сохранить и передать в solve.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, name := range scenario.BuiltinNames() {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		}
		sc, err := scenario.Builtin(args[0])
		if err != nil {
			return err
		}
		return scenario.Encode(os.Stdout, sc.Name, sc.Instance)
	},
}

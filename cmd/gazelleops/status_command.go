package main

import (
	"errors"

	"github.com/spf13/cobra"

	"gazelleops/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check tools, directories, and tracker connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.CheckEnvironment(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			cmd.Println(renderTable(
				[]column{{title: "Check"}, {title: "State"}, {title: "Detail"}},
				rows,
			))
			if failed > 0 {
				return errors.New("environment is not ready")
			}
			return nil
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgplan/modules/org/presentation/mappers"
	"github.com/iota-uz/orgplan/modules/org/services"
)

func newRollupCmd(a *app) *cobra.Command {
	var alternate bool

	cmd := &cobra.Command{
		Use:   "rollup <tree>",
		Short: "Verify rollups and print one JSON line per node in pre-order",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.loadTree(args[0])
			if err != nil {
				return err
			}
			if err := services.VerifyRollups(tree); err != nil {
				return withCode(exitValidation, err)
			}
			opts := a.treeOptions()
			if cmd.Flags().Changed("alternate") {
				opts.ShowAlternate = alternate
			}
			for _, row := range mappers.TreeToRows(tree, opts).Rows {
				if err := writeJSONLine(a.out, row); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&alternate, "alternate", false, "include expected capacity at the alternate per-head rate")
	return cmd
}

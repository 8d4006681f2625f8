package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgplan/modules/org/infrastructure/export"
	"github.com/iota-uz/orgplan/modules/org/presentation/mappers"
	"github.com/iota-uz/orgplan/modules/org/services"
	territory "github.com/iota-uz/orgplan/modules/territory/services"
)

type exportOutput struct {
	Written    string `json:"written"`
	Rows       int    `json:"rows"`
	Allocation string `json:"allocation,omitempty"`
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out       string
		alternate bool
		f         allocateFlags
	)
	cmd := &cobra.Command{
		Use:   "export <tree>",
		Short: "Write the hierarchy and an optional allocation to an xlsx workbook",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				return withCode(exitUsage, fmt.Errorf("--out is required"))
			}
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
			rows := mappers.TreeToRows(tree, opts)

			var alloc *territory.Result
			if f.requested(cmd) {
				res, err := a.allocate(cmd, args[0], f)
				if err != nil {
					return err
				}
				alloc = &res
			}

			file, err := os.Create(out)
			if err != nil {
				return withCode(exitIO, fmt.Errorf("create %s: %w", out, err))
			}
			if err := export.WriteWorkbook(file, rows, alloc); err != nil {
				_ = file.Close()
				return withCode(exitIO, err)
			}
			if err := file.Close(); err != nil {
				return withCode(exitIO, fmt.Errorf("close %s: %w", out, err))
			}

			result := exportOutput{Written: out, Rows: len(rows.Rows)}
			if alloc != nil {
				result.Allocation = string(alloc.Status)
			}
			return writeJSONLine(a.out, result)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "xlsx file to write")
	cmd.Flags().BoolVar(&alternate, "alternate", false, "include expected capacity at the alternate per-head rate")
	f.register(cmd)
	return cmd
}

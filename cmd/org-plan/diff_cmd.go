package main

import (
	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/orgplan/modules/org/infrastructure/changeset"
)

type diffOutput struct {
	Operations int            `json:"operations"`
	Patch      jsondiff.Patch `json:"patch"`
	Verified   bool           `json:"verified,omitempty"`
}

func newDiffCmd(a *app) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Print the JSON patch between two tree files, rollups included",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := a.loadTree(args[0])
			if err != nil {
				return err
			}
			after, err := a.loadTree(args[1])
			if err != nil {
				return err
			}
			patch, err := changeset.Diff(before, after)
			if err != nil {
				return withCode(exitIO, err)
			}
			out := diffOutput{Operations: len(patch), Patch: patch}
			if verify {
				if err := changeset.Verify(before, after, patch); err != nil {
					return withCode(exitValidation, err)
				}
				out.Verified = true
			}
			return writeJSONLine(a.out, out)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "replay the patch onto the first tree and check it reproduces the second")
	return cmd
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/presentation/mappers"
)

func newFindCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "find <tree> <query>",
		Short: "Fuzzy-search nodes by name, person or role",
		Args:  rangeArgs(2, 64),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.loadTree(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			matches := mappers.TreeToSpotlight(tree).Find(query)
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}
			opts := a.treeOptions()
			for _, m := range matches {
				details := mappers.NodeDetailsToViewModel(tree, orgtree.NodeID(m.Key), opts)
				if err := writeJSONLine(a.out, details); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of matches to print; 0 prints all")
	return cmd
}

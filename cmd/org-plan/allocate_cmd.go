package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	territory "github.com/iota-uz/orgplan/modules/territory/services"
)

type allocateFlags struct {
	plan   string
	units  int64
	budget int64
}

func (f *allocateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.plan, "plan", "", "TOML allocation plan (pools, unassigned key, explicit entities)")
	cmd.Flags().Int64Var(&f.units, "units", 0, "unit pool to allocate; overrides the plan")
	cmd.Flags().Int64Var(&f.budget, "budget", 0, "budget pool to allocate; overrides the plan")
}

func (f *allocateFlags) requested(cmd *cobra.Command) bool {
	return f.plan != "" || cmd.Flags().Changed("units") || cmd.Flags().Changed("budget")
}

// allocate resolves pools and entities from the plan, the flags and the
// tree, in that order of precedence for entities and reverse for pools.
func (a *app) allocate(cmd *cobra.Command, treePath string, f allocateFlags) (territory.Result, error) {
	plan := &allocationPlan{}
	if strings.TrimSpace(f.plan) != "" {
		p, err := readPlan(f.plan)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return territory.Result{}, withCode(exitIO, err)
			}
			return territory.Result{}, withCode(exitValidation, fmt.Errorf("plan %s: %w", f.plan, err))
		}
		plan = p
	}

	units := plan.Units
	if cmd.Flags().Changed("units") {
		units = f.units
	}
	budget := a.cfg.Territory.DefaultBudget.IntPart()
	if plan.Budget != nil {
		budget = *plan.Budget
	}
	if cmd.Flags().Changed("budget") {
		budget = f.budget
	}

	entities := plan.entities()
	if len(entities) == 0 {
		if treePath == "" {
			return territory.Result{}, withCode(exitUsage, fmt.Errorf("either a tree or plan entities are required"))
		}
		tree, err := a.loadTree(treePath)
		if err != nil {
			return territory.Result{}, err
		}
		entities = territory.EntitiesFromTree(tree)
	}

	svc := a.allocator
	if plan.UnassignedKey != "" {
		svc = territory.NewAllocationService(territory.AllocationOptions{
			UnassignedKey: plan.UnassignedKey,
			Logger:        a.log,
			Bus:           a.bus,
		})
	}
	res, err := svc.Allocate(entities, units, budget)
	if err != nil {
		return territory.Result{}, withCode(exitValidation, err)
	}
	return res, nil
}

func newAllocateCmd(a *app) *cobra.Command {
	var f allocateFlags
	cmd := &cobra.Command{
		Use:   "allocate [tree]",
		Short: "Split unit and budget pools across AEs by validated capacity",
		Long: "Split unit and budget pools across AEs by validated capacity using the largest remainder method.\n" +
			"When no AE has validated capacity the result status is \"skipped\" and no per-AE values are printed.",
		Args: rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treePath := ""
			if len(args) == 1 {
				treePath = args[0]
			}
			res, err := a.allocate(cmd, treePath, f)
			if err != nil {
				return err
			}
			return writeJSONLine(a.out, res)
		},
	}
	f.register(cmd)
	return cmd
}

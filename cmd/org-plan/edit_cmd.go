package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/orgplan/modules/org/infrastructure/changeset"
	"github.com/iota-uz/orgplan/modules/org/presentation/dtos"
	"github.com/iota-uz/orgplan/modules/org/presentation/mappers"
	"github.com/iota-uz/orgplan/modules/org/presentation/viewmodels"
	"github.com/iota-uz/orgplan/modules/org/services"
)

type editOutput struct {
	RequestID     string                     `json:"request_id"`
	NodeID        string                     `json:"node_id"`
	Field         string                     `json:"field"`
	RootHeadcount int                        `json:"root_headcount"`
	Node          *viewmodels.OrgNodeDetails `json:"node"`
	Changes       jsondiff.Patch             `json:"changes"`
	Written       string                     `json:"written,omitempty"`
}

type editFlags struct {
	node      string
	value     string
	out       string
	inPlace   bool
	requestID string
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.node, "node", "", "id of the node to edit")
	cmd.Flags().StringVar(&f.value, "value", "", "new value")
	cmd.Flags().StringVar(&f.out, "out", "", "write the updated tree to this file")
	cmd.Flags().BoolVar(&f.inPlace, "in-place", false, "overwrite the input tree file")
	cmd.Flags().StringVar(&f.requestID, "request-id", "", "request id recorded in logs and change events")
}

func (a *app) runEdit(cmd *cobra.Command, path string, req dtos.EditRequest, f editFlags) error {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if errs, ok := req.Ok(cmd.Context()); !ok {
		return withCode(exitUsage, fmt.Errorf("invalid edit: %s", joinMessages(errs)))
	}
	edit, err := req.ToEdit()
	if err != nil {
		return withCode(exitValidation, err)
	}

	tree, err := a.loadTree(path)
	if err != nil {
		return err
	}
	next, err := a.hierarchy.Apply(cmd.Context(), tree, edit)
	if err != nil {
		return withCode(exitValidation, err)
	}

	patch, err := changeset.Diff(tree, next)
	if err != nil {
		return withCode(exitIO, err)
	}
	out := editOutput{
		RequestID:     edit.RequestID,
		NodeID:        string(edit.NodeID),
		Field:         string(edit.Field),
		RootHeadcount: next.Root().Headcount,
		Node:          mappers.NodeDetailsToViewModel(next, edit.NodeID, a.treeOptions()),
		Changes:       patch,
	}
	if target := f.target(path); target != "" {
		if err := a.writeTree(target, next); err != nil {
			return err
		}
		out.Written = target
	}
	return writeJSONLine(a.out, out)
}

func (f editFlags) target(path string) string {
	if f.inPlace {
		return path
	}
	return strings.TrimSpace(f.out)
}

func joinMessages(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for _, k := range []string{"NodeID", "Field", "_"} {
		if msg, ok := errs[k]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func newSetHeadcountCmd(a *app) *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "set-headcount <tree>",
		Short: "Set the headcount of a leaf and roll it up to the root",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, args[0], dtos.EditRequest{
				RequestID: f.requestID,
				NodeID:    f.node,
				Field:     string(services.FieldHeadcount),
				Value:     f.value,
			}, f)
		},
	}
	f.register(cmd)
	return cmd
}

func newSetFieldCmd(a *app) *cobra.Command {
	var (
		f     editFlags
		field string
	)
	cmd := &cobra.Command{
		Use:   "set-field <tree>",
		Short: "Set one node field (target_capacity, validated_capacity, name, person, status or headcount)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, args[0], dtos.EditRequest{
				RequestID: f.requestID,
				NodeID:    f.node,
				Field:     field,
				Value:     f.value,
			}, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&field, "field", "", "field to edit")
	return cmd
}

type applyOutput struct {
	Applied       int            `json:"applied"`
	RootHeadcount int            `json:"root_headcount"`
	Changes       jsondiff.Patch `json:"changes"`
	Written       string         `json:"written,omitempty"`
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		f         editFlags
		editsPath string
	)
	cmd := &cobra.Command{
		Use:   "apply <tree>",
		Short: "Apply a YAML list of edits in order, stopping at the first rejected edit",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readEdits(editsPath)
			if err != nil {
				return err
			}
			edits := make([]services.Edit, 0, len(reqs))
			for i := range reqs {
				if reqs[i].RequestID == "" {
					reqs[i].RequestID = f.requestID
				}
				if errs, ok := reqs[i].Ok(cmd.Context()); !ok {
					return withCode(exitUsage, fmt.Errorf("edit %d: %s", i, joinMessages(errs)))
				}
				edit, err := reqs[i].ToEdit()
				if err != nil {
					return withCode(exitValidation, fmt.Errorf("edit %d: %w", i, err))
				}
				edits = append(edits, edit)
			}

			tree, err := a.loadTree(args[0])
			if err != nil {
				return err
			}
			next, err := a.hierarchy.ApplyAll(cmd.Context(), tree, edits)
			if err != nil {
				return withCode(exitValidation, err)
			}
			patch, err := changeset.Diff(tree, next)
			if err != nil {
				return withCode(exitIO, err)
			}
			out := applyOutput{Applied: len(edits), RootHeadcount: next.Root().Headcount, Changes: patch}
			if target := f.target(args[0]); target != "" {
				if err := a.writeTree(target, next); err != nil {
					return err
				}
				out.Written = target
			}
			return writeJSONLine(a.out, out)
		},
	}
	cmd.Flags().StringVar(&editsPath, "edits", "", "YAML file with a list of {node_id, field, value} edits")
	cmd.Flags().StringVar(&f.out, "out", "", "write the updated tree to this file")
	cmd.Flags().BoolVar(&f.inPlace, "in-place", false, "overwrite the input tree file")
	cmd.Flags().StringVar(&f.requestID, "request-id", "", "request id for edits that do not name one")
	return cmd
}

func readEdits(path string) ([]dtos.EditRequest, error) {
	if strings.TrimSpace(path) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--edits is required"))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, withCode(exitIO, fmt.Errorf("read %s: %w", path, err))
	}
	var reqs []dtos.EditRequest
	if err := yaml.Unmarshal(b, &reqs); err != nil {
		return nil, withCode(exitValidation, fmt.Errorf("decode %s: %w", path, err))
	}
	return reqs, nil
}

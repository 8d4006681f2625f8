package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/infrastructure/loader"
	"github.com/iota-uz/orgplan/modules/org/presentation/locales"
	"github.com/iota-uz/orgplan/modules/org/presentation/mappers"
	"github.com/iota-uz/orgplan/modules/org/services"
	territory "github.com/iota-uz/orgplan/modules/territory/services"
	"github.com/iota-uz/orgplan/pkg/configuration"
	"github.com/iota-uz/orgplan/pkg/eventbus"
	"github.com/iota-uz/orgplan/pkg/intl"
	"github.com/iota-uz/orgplan/pkg/metrics"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg       *configuration.Configuration
	log       *logrus.Entry
	bus       eventbus.EventBus
	hierarchy *services.HierarchyService
	allocator *territory.AllocationService
	localizer *i18n.Localizer
	events    *eventSink
	out       io.Writer
}

func (a *app) treeOptions() mappers.TreeOptions {
	return mappers.TreeOptions{
		Currency:      a.cfg.Planning.Currency,
		PrimaryRate:   a.cfg.Planning.PrimaryRatePerHead,
		AlternateRate: a.cfg.Planning.AlternateRatePerHead,
		ShowAlternate: a.cfg.Planning.ShowAlternateRate,
	}
}

func (a *app) loadTree(path string) (*orgtree.Tree, error) {
	if strings.TrimSpace(path) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("tree file is required"))
	}
	tree, err := loader.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, withCode(exitIO, err)
		}
		return nil, withCode(exitValidation, err)
	}
	return tree, nil
}

func (a *app) writeTree(path string, tree *orgtree.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return withCode(exitIO, fmt.Errorf("create %s: %w", path, err))
	}
	if err := loader.Encode(f, tree); err != nil {
		_ = f.Close()
		return withCode(exitIO, err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitIO, fmt.Errorf("close %s: %w", path, err))
	}
	return nil
}

func (a *app) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil && a.log != nil {
			a.log.WithError(err).Warn("close events file")
		}
		a.events = nil
	}
	if a.cfg != nil {
		a.cfg.Unload()
	}
}

func newApp(envFiles []string, out io.Writer) (*app, error) {
	cfg, err := configuration.Load(envFiles...)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("configuration: %w", err))
	}
	bundle, err := intl.NewBundle(locales.FS)
	if err != nil {
		cfg.Unload()
		return nil, withCode(exitIO, fmt.Errorf("message bundle: %w", err))
	}
	log := logrus.NewEntry(cfg.Logger()).WithField("app", "org-plan")
	bus := eventbus.NewEventPublisher(log)
	return &app{
		cfg:       cfg,
		localizer: i18n.NewLocalizer(bundle, cfg.Locale),
		log:       log,
		bus:       bus,
		hierarchy: services.NewHierarchyService(log, bus),
		allocator: territory.NewAllocationService(territory.AllocationOptions{
			UnassignedKey: cfg.Territory.UnassignedKey,
			Logger:        log,
			Bus:           bus,
		}),
		out: out,
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		envFiles  []string
		eventsOut string
		a         = &app{}
	)

	cmd := &cobra.Command{
		Use:           "org-plan",
		Short:         "Sales org capacity planning: rollups, edits and territory allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := newApp(envFiles, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			*a = *loaded
			if eventsOut != "" {
				sink, err := openEventSink(eventsOut, a.bus)
				if err != nil {
					a.cfg.Unload()
					return err
				}
				a.events = sink
			}
			cmd.SetContext(intl.WithLocalizer(cmd.Context(), a.localizer))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a.close()
			return flushMetrics(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "env files to load before reading configuration")
	cmd.PersistentFlags().StringVar(&eventsOut, "events-out", "", "append every published change event to this file as JSON lines")
	cmd.PersistentFlags().String("metrics-file", "", "write counters to this .prom file for the node_exporter textfile collector")

	cmd.AddCommand(newRollupCmd(a))
	cmd.AddCommand(newSetHeadcountCmd(a))
	cmd.AddCommand(newSetFieldCmd(a))
	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newAllocateCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newFindCmd(a))
	cmd.AddCommand(newDiffCmd(a))
	return cmd
}

// flushMetrics is a no-op unless --metrics-file is set.
func flushMetrics(cmd *cobra.Command) error {
	path, err := cmd.Root().PersistentFlags().GetString("metrics-file")
	if err != nil || path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(path, nil); err != nil {
		return withCode(exitIO, err)
	}
	return nil
}

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		// Rejected runs skip the post-run hook but still count.
		_ = flushMetrics(root)
		code := exitCode(err)
		out := errorOutput{Error: err.Error()}
		if svcErr := services.AsServiceError(err); code == exitValidation && svcErr != nil && svcErr.Code != "ORG_INTERNAL" {
			out.Code = svcErr.Code
			out.Message = svcErr.Message
		}
		_ = writeJSONLine(os.Stderr, out)
		os.Exit(code)
	}
}

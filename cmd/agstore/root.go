package main

import (
	"fmt"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/config"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/janelia-flyem/agstore/storage"
	_ "github.com/janelia-flyem/agstore/storage/badger"
	_ "github.com/janelia-flyem/agstore/storage/blob"
	"github.com/spf13/cobra"
)

// Version is the version of the agstore command.
const Version = "0.1.0"

// DefaultStorePath is the badger directory used when no config file is given.
const DefaultStorePath = "agstore-data"

// app holds what the persistent flags set up for every command.
type app struct {
	cfgFile   string
	storePath string
	verbose   bool

	cfg   *config.Config
	store storage.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "agstore",
		Short:         "agstore manages attributed multigraph snapshots.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().StringVar(&a.storePath, "store", DefaultStorePath, "badger directory used when the config names no store")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")

	root.AddCommand(
		newGenerateCmd(a),
		newListCmd(a),
		newInfoCmd(a),
		newMatrixCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if a.verbose {
		agstore.SetLogMode(agstore.DebugMode)
	} else {
		agstore.SetLogMode(agstore.WarningMode)
	}
	if a.cfgFile != "" {
		cfg, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = &config.Config{}
	}
	if a.cfg.Store.Engine == "" {
		a.cfg.Store = storage.Config{Engine: "badger", Path: a.storePath}
	}
	a.cfg.SetLogger()

	store, err := a.cfg.OpenStore()
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

// load reads a stored graph.
func (a *app) load(cmd *cobra.Command, id string) (*graph.Graph, error) {
	g, err := graph.Load(cmd.Context(), a.store, id, graph.WithConfig(a.cfg.Graph))
	if err != nil {
		return nil, fmt.Errorf("no graph %q in %s: %w", id, a.store, err)
	}
	return g, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the graphs in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.store.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

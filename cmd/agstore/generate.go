package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/attribute"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/janelia-flyem/agstore/schema"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	id           string
	kind         string
	vertices     int
	transactions int
	seed         int64
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a graph and save it to the store",
		Long: `Generate builds either the five vertex scenario graph or a random network of
hosts, addresses and mailboxes typed by a small schema, then saves it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "graph id (default a new uuid)")
	cmd.Flags().StringVar(&opts.kind, "kind", "random", "scenario or random")
	cmd.Flags().IntVar(&opts.vertices, "vertices", 100, "vertices in a random graph")
	cmd.Flags().IntVar(&opts.transactions, "transactions", 300, "transactions in a random graph")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, opts *generateOptions) error {
	gopts := a.cfg.GraphOptions(a.store)
	if opts.id != "" {
		gopts = append(gopts, graph.WithID(opts.id))
	}
	g := graph.New(gopts...)

	publisher, err := a.cfg.Publisher(g.ID())
	if err != nil {
		return err
	}
	if publisher != nil {
		g.AddListener(publisher)
		defer publisher.Close()
	}

	ctx := cmd.Context()
	switch opts.kind {
	case "scenario":
		err = buildScenario(ctx, g)
	case "random":
		err = buildNetwork(ctx, g, opts)
	default:
		return fmt.Errorf("unknown graph kind %q", opts.kind)
	}
	if err != nil {
		return err
	}
	if _, err := g.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), g.Stats())
	return nil
}

// write runs fn in a write session, rolling back if it fails.
func write(ctx context.Context, g *graph.Graph, description string, fn func(w *graph.WritableGraph) error) error {
	w, err := g.WritableGraph(ctx, description, true)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		if rbErr := w.RollBack(); rbErr != nil {
			agstore.Errorf("Unable to roll back %q: %v\n", description, rbErr)
		}
		return err
	}
	return w.Commit()
}

func buildScenario(ctx context.Context, g *graph.Graph) error {
	return write(ctx, g, "scenario", func(w *graph.WritableGraph) error {
		for i := 0; i < 5; i++ {
			if _, err := w.AddVertex(); err != nil {
				return err
			}
		}
		for _, e := range [][2]int{{0, 1}, {1, 2}, {1, 3}, {2, 3}, {3, 4}} {
			if _, err := w.AddTransaction(e[0], e[1], false); err != nil {
				return err
			}
		}
		return nil
	})
}

func networkSchema() (*schema.Schema, error) {
	s := schema.New("network")
	node, err := schema.NewVertexTypeBuilder("Node").
		Description("a network participant").
		Color(attribute.Color{R: 0.2, G: 0.4, B: 0.8, A: 1}).
		Build()
	if err != nil {
		return nil, err
	}
	ip, err := schema.DeriveVertexType(node, "IP Address").
		DetectionRegex(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`).
		Build()
	if err != nil {
		return nil, err
	}
	email, err := schema.DeriveVertexType(node, "Email").
		Color(attribute.Color{R: 0.9, G: 0.6, B: 0.1, A: 1}).
		DetectionRegex(`[^@\s]+@[^@\s]+`).
		Build()
	if err != nil {
		return nil, err
	}
	for _, t := range []*schema.VertexType{node, ip, email} {
		if err := s.AddVertexType(t); err != nil {
			return nil, err
		}
	}
	comm, err := schema.NewTransactionTypeBuilder("Communication").Directed(true).Build()
	if err != nil {
		return nil, err
	}
	return s, s.AddTransactionType(comm)
}

func buildNetwork(ctx context.Context, g *graph.Graph, opts *generateOptions) error {
	s, err := networkSchema()
	if err != nil {
		return err
	}
	src := rand.New(rand.NewSource(opts.seed))
	return write(ctx, g, "random network", func(w *graph.WritableGraph) error {
		attrs, err := s.Apply(w)
		if err != nil {
			return err
		}
		bytesSent, err := w.EnsureAttribute(agstore.Transaction, attribute.LongTag, "bytes", "bytes sent", 0)
		if err != nil {
			return err
		}
		ids := make([]int, opts.vertices)
		for i := range ids {
			if ids[i], err = w.AddVertex(); err != nil {
				return err
			}
			var identifier string
			switch src.Intn(3) {
			case 0:
				identifier = fmt.Sprintf("10.%d.%d.%d", src.Intn(256), src.Intn(256), src.Intn(256))
			case 1:
				identifier = fmt.Sprintf("user%d@example.com", i)
			default:
				identifier = fmt.Sprintf("host-%d", i)
			}
			if err := w.SetString(attrs.Identifier, ids[i], identifier); err != nil {
				return err
			}
		}
		for i := 0; i < opts.transactions && len(ids) > 0; i++ {
			tx, err := w.AddTransaction(ids[src.Intn(len(ids))], ids[src.Intn(len(ids))], true)
			if err != nil {
				return err
			}
			if err := w.SetString(attrs.TransactionType, tx, "Communication"); err != nil {
				return err
			}
			if err := w.SetLong(bytesSent, tx, src.Int63n(1<<20)); err != nil {
				return err
			}
		}
		typed, err := s.Complete(w, attrs)
		if err != nil {
			return err
		}
		agstore.Infof("Typed %d of %d vertices with schema %s\n", typed, len(ids), s.Name)
		return nil
	})
}

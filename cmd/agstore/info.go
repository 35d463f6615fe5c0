package main

import (
	"fmt"
	"io"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <graph id>",
		Short: "Show counts, memory and attributes of a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, g.Stats())

			r := g.ReadableGraph()
			defer r.Release()
			return describeAttributes(out, r)
		},
	}
}

func describeAttributes(out io.Writer, r *graph.ReadableGraph) error {
	for _, et := range []agstore.ElementType{agstore.GraphElement, agstore.Vertex, agstore.Transaction} {
		attrs := r.Attributes(et)
		if len(attrs) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s attributes\n", et)
		for _, attr := range attrs {
			def, err := r.Default(attr.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %-20s %-10s default %-12v %s\n", attr.Name, attr.Tag, def, attr.Description)
		}
	}
	return nil
}

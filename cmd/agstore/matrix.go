package main

import (
	"fmt"

	"github.com/janelia-flyem/agstore/matrix"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func newMatrixCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "matrix <graph id>",
		Short: "Print a matrix of a stored graph",
		Long: `Matrix prints one of: identity, adjacency, incidence, degree, laplacian or
pinv (the pseudo-inverse of the laplacian).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			r := g.ReadableGraph()
			defer r.Release()

			var m mat.Matrix
			switch kind {
			case "identity":
				m = matrix.Identity(r)
			case "adjacency":
				m = matrix.Adjacency(r)
			case "incidence":
				m = matrix.Incidence(r)
			case "degree":
				m = matrix.Degree(r)
			case "laplacian":
				m = matrix.Laplacian(r)
			case "pinv":
				if m, err = matrix.PseudoInverse(matrix.Laplacian(r)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown matrix %q", kind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4g\n", mat.Formatted(m, mat.Squeeze()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "adjacency", "which matrix to print")
	return cmd
}

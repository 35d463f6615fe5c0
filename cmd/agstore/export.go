package main

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		elementType string
		out         string
	)
	cmd := &cobra.Command{
		Use:   "export <graph id>",
		Short: "Write the attributes of one element type as an Arrow IPC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := agstore.ParseElementType(elementType)
			if err != nil {
				return err
			}
			g, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			r := g.ReadableGraph()
			defer r.Release()

			rec, err := r.ArrowRecord(et)
			if err != nil {
				return err
			}
			defer rec.Release()

			if out == "" {
				out = fmt.Sprintf("%s-%s.arrow", args[0], et)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()))
			if err != nil {
				f.Close()
				return err
			}
			if err := w.Write(rec); err != nil {
				w.Close()
				f.Close()
				return err
			}
			if err := w.Close(); err != nil {
				f.Close()
				return err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d %s rows (%s) to %s\n",
				rec.NumRows(), et, humanize.Bytes(uint64(info.Size())), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&elementType, "type", "t", "vertex", "element type: graph, vertex or transaction")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <id>-<type>.arrow)")
	return cmd
}

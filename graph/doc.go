/*
	Package graph manages access to an attributed multigraph: one writable handle at a
	time, any number of readable handles bound to committed versions, commit and
	rollback, the global modification counter and undo/redo.

	A write session mutates a copy-on-write fork of the committed version.  Commit
	publishes the fork atomically; RollBack drops it.  Readers always see the version
	that was committed when they acquired their handle:

		w, err := g.WritableGraph(ctx, "add vertex", true)
		if err != nil {
			return err
		}
		v, _ := w.AddVertex()
		if err := w.SetString(nameAttr, v, "alpha"); err != nil {
			w.RollBack()
			return err
		}
		return w.Commit()

	Every handle must be finished exactly once: Release for readable handles, Commit
	or RollBack for writable ones.  Finishing a handle twice returns an
	*agstore.IllegalStateError.
*/
package graph

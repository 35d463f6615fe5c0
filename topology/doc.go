/*
	Package topology holds the vertices and transactions of one graph version: id
	allocation with per-type free lists, positions, and the per-vertex adjacency
	lists used for O(1) incident transaction lookups.

	Ids released by a removal are held in a pending list and only become reusable
	once the write session commits, so discarding a session never races with a
	reallocated id.  Edges and links are computed views over transactions.
*/
package topology

/*
	Package column provides sparse, chunked storage for per-element values.

	A Space tracks the capacity of one element type.  Every column of that type
	registers with the Space and is told when capacity grows; a column only grows
	its chunk index at that point.  Chunks of ChunkSize values are allocated the
	first time a value is written into them, so an attribute set on a handful of
	elements costs a handful of chunks no matter how many elements exist.

	Columns are copy-on-write between write sessions.  Fork(epoch) returns a column
	sharing every chunk with its source; the first write into a chunk owned by a
	different epoch copies that chunk.  A column that has been published to readers
	is never written again, which is what lets readers keep a stable view while a
	writer mutates its fork.
*/
package column

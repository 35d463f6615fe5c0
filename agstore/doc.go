/*
	Package agstore provides types, constants and functions that have no other dependencies
	and can be used by all packages within the attributed graph store: element types,
	the error taxonomy shared by the topology, attribute and transaction layers, the
	package logger, and serialization with optional compression and checksums.
*/
package agstore

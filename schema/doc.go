/*
	Package schema defines vertex and transaction types and a Schema that registers
	them, resolves identifiers to types and completes a graph's type attributes.

	Types are immutable once built.  A builder started from a parent type inherits
	the parent's presentation fields and sets the parent as supertype, but starts
	with no properties, is not marked incomplete and has no detection regex; those
	must be set on the child explicitly.
*/
package schema

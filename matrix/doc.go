/*
	Package matrix builds dense matrices over the topology of a graph version.

	Rows and columns are indexed by vertex position (and, for the incidence matrix,
	transaction position), so a matrix computed from a readable handle stays valid
	for as long as the version it came from.
*/
package matrix

/*
	Package attribute implements the attribute descriptor registry.

	Each attribute type is a tagged variant, e.g., "long" or "hyperlink", selected by
	its tag when the attribute is registered.  Every variant implements Descriptor,
	which owns the column of values for one attribute and the conversions between
	that attribute's native type and the representations callers use: bool, byte,
	short, int, long, float, double, char, string and object.  Conversions are as
	narrow as possible and fail with an *agstore.ConversionError when a value cannot
	be represented; a failed set never changes the stored value.

	Variants are registered by tag with Register, usually from init().  The built-in
	variants are boolean, byte, short, integer, long, float, double, string, color,
	hyperlink and datetime.
*/
package attribute

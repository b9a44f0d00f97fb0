package resolve

import "github.com/brimdata/cql"

type catalog struct {
	tctx  *cql.Context
	table *Table
}

func (c *catalog) op(name string, result cql.Type, operands ...cql.Type) {
	c.table.MustAdd(&Operator{
		Name:      name,
		Library:   SystemLibrary,
		Signature: Signature{Operands: operands, Result: result},
	})
}

func (c *catalog) conv(kind ConversionKind, name string, from, to cql.Type) {
	c.table.MustAdd(&Operator{
		Name:       name,
		Library:    SystemLibrary,
		Signature:  Signature{Operands: []cql.Type{from}, Result: to},
		Conversion: kind,
	})
}

func (c *catalog) list(t cql.Type) cql.Type {
	return c.tctx.LookupTypeList(t)
}

func (c *catalog) interval(t cql.Type) cql.Type {
	return c.tctx.LookupTypeInterval(t)
}

func repeat(t cql.Type, n int) []cql.Type {
	types := make([]cql.Type, n)
	for k := range types {
		types[k] = t
	}
	return types
}

var (
	boolean  = cql.TypeBoolean
	integer  = cql.TypeInteger
	decimal  = cql.TypeDecimal
	str      = cql.TypeString
	datetime = cql.TypeDateTime
	timeType = cql.TypeTime
	quantity = cql.TypeQuantity
	anyType  = cql.TypeAny
	param    = cql.TypeT
)

// Types with a total order over their values.
var orderedTypes = []cql.Type{integer, decimal, quantity, datetime, timeType, str}

// NewSystem builds the frozen table of System operators with types interned
// in tctx.
func NewSystem(tctx *cql.Context) *Table {
	c := &catalog{tctx: tctx, table: NewTable(SystemLibrary)}
	c.logical()
	c.nullological()
	c.comparison()
	c.arithmetic()
	c.strings()
	c.dateTime()
	c.intervals()
	c.lists()
	c.aggregates()
	c.conversions()
	c.table.Freeze()
	return c.table
}

func (c *catalog) logical() {
	for _, name := range []string{"And", "Or", "Xor", "Implies"} {
		c.op(name, boolean, boolean, boolean)
	}
	for _, name := range []string{"Not", "IsTrue", "IsFalse"} {
		c.op(name, boolean, boolean)
	}
}

func (c *catalog) nullological() {
	c.op("IsNull", boolean, anyType)
	for n := 2; n <= 5; n++ {
		c.op("Coalesce", param, repeat(param, n)...)
	}
	c.op("Coalesce", param, c.list(param))
}

func (c *catalog) comparison() {
	c.op("Equal", boolean, param, param)
	c.op("Equivalent", boolean, param, param)
	for _, name := range []string{"Less", "LessOrEqual", "Greater", "GreaterOrEqual"} {
		for _, t := range orderedTypes {
			c.op(name, boolean, t, t)
		}
	}
}

func (c *catalog) arithmetic() {
	for _, name := range []string{"Add", "Subtract", "Multiply"} {
		for _, t := range []cql.Type{integer, decimal, quantity} {
			c.op(name, t, t, t)
		}
	}
	for _, name := range []string{"Add", "Subtract"} {
		c.op(name, datetime, datetime, quantity)
		c.op(name, timeType, timeType, quantity)
	}
	c.op("Divide", decimal, decimal, decimal)
	c.op("Divide", quantity, quantity, quantity)
	for _, name := range []string{"TruncatedDivide", "Modulo", "Power"} {
		c.op(name, integer, integer, integer)
		c.op(name, decimal, decimal, decimal)
	}
	for _, name := range []string{"Negate", "Abs"} {
		for _, t := range []cql.Type{integer, decimal, quantity} {
			c.op(name, t, t)
		}
	}
	for _, name := range []string{"Ceiling", "Floor", "Truncate"} {
		c.op(name, integer, decimal)
	}
	c.op("Round", decimal, decimal)
	c.op("Round", decimal, decimal, integer)
	c.op("Ln", decimal, decimal)
	c.op("Exp", decimal, decimal)
	c.op("Log", decimal, decimal, decimal)
	for _, name := range []string{"Successor", "Predecessor"} {
		for _, t := range orderedTypes[:5] {
			c.op(name, t, t)
		}
	}
}

func (c *catalog) strings() {
	c.op("Concatenate", str, str, str)
	c.op("Length", integer, str)
	c.op("Length", integer, c.list(param))
	c.op("Upper", str, str)
	c.op("Lower", str, str)
	c.op("Substring", str, str, integer)
	c.op("Substring", str, str, integer, integer)
	for _, name := range []string{"StartsWith", "EndsWith", "Matches"} {
		c.op(name, boolean, str, str)
	}
	c.op("PositionOf", integer, str, str)
	c.op("LastPositionOf", integer, str, str)
	c.op("Combine", str, c.list(str))
	c.op("Combine", str, c.list(str), str)
	c.op("Split", c.list(str), str, str)
	c.op("Indexer", str, str, integer)
	c.op("Indexer", param, c.list(param), integer)
}

func (c *catalog) dateTime() {
	c.op("Now", datetime)
	c.op("Today", datetime)
	c.op("TimeOfDay", timeType)
	for n := 1; n <= 7; n++ {
		c.op("DateTime", datetime, repeat(integer, n)...)
	}
	c.op("DateTime", datetime, append(repeat(integer, 7), decimal)...)
	for n := 1; n <= 4; n++ {
		c.op("Time", timeType, repeat(integer, n)...)
	}
	c.op("DateFrom", datetime, datetime)
	c.op("TimeFrom", timeType, datetime)
	c.op("TimezoneOffsetFrom", decimal, datetime)
	c.op("DateTimeComponentFrom", integer, datetime)
	c.op("DateTimeComponentFrom", integer, timeType)
	for _, t := range []cql.Type{datetime, timeType} {
		c.op("DurationBetween", integer, t, t)
		c.op("DifferenceBetween", integer, t, t)
		for _, name := range []string{"SameAs", "SameOrBefore", "SameOrAfter", "Before", "After"} {
			c.op(name, boolean, t, t)
		}
	}
}

func (c *catalog) intervals() {
	ival := c.interval(param)
	for _, name := range []string{"Start", "End", "PointFrom", "Width"} {
		c.op(name, param, ival)
	}
	c.op("Contains", boolean, ival, param)
	c.op("ProperContains", boolean, ival, param)
	c.op("In", boolean, param, ival)
	c.op("ProperIn", boolean, param, ival)
	for _, name := range []string{"Includes", "IncludedIn", "ProperIncludes", "ProperIncludedIn"} {
		c.op(name, boolean, ival, ival)
	}
	for _, name := range []string{"Before", "After"} {
		c.op(name, boolean, ival, ival)
		c.op(name, boolean, param, ival)
		c.op(name, boolean, ival, param)
	}
	for _, name := range []string{"Overlaps", "OverlapsBefore", "OverlapsAfter", "Meets", "MeetsBefore", "MeetsAfter", "Starts", "Ends"} {
		c.op(name, boolean, ival, ival)
	}
	for _, name := range []string{"Union", "Intersect", "Except"} {
		c.op(name, ival, ival, ival)
	}
	c.op("Collapse", c.list(ival), c.list(ival))
}

func (c *catalog) lists() {
	list := c.list(param)
	c.op("Exists", boolean, list)
	c.op("Count", integer, list)
	c.op("SingletonFrom", param, list)
	c.op("First", param, list)
	c.op("Last", param, list)
	c.op("Distinct", list, list)
	c.op("Flatten", list, c.list(list))
	c.op("IndexOf", integer, list, param)
	c.op("Contains", boolean, list, param)
	c.op("ProperContains", boolean, list, param)
	c.op("In", boolean, param, list)
	c.op("ProperIn", boolean, param, list)
	for _, name := range []string{"Includes", "IncludedIn", "ProperIncludes", "ProperIncludedIn"} {
		c.op(name, boolean, list, list)
	}
	for _, name := range []string{"Union", "Intersect", "Except"} {
		c.op(name, list, list, list)
	}
}

func (c *catalog) aggregates() {
	for _, t := range []cql.Type{integer, decimal, quantity} {
		c.op("Sum", t, c.list(t))
	}
	for _, name := range []string{"Min", "Max"} {
		for _, t := range orderedTypes {
			c.op(name, t, c.list(t))
		}
	}
	for _, name := range []string{"Avg", "Median", "StdDev", "Variance", "PopulationStdDev", "PopulationVariance"} {
		c.op(name, decimal, c.list(decimal))
		c.op(name, quantity, c.list(quantity))
	}
	c.op("Mode", param, c.list(param))
	c.op("AllTrue", boolean, c.list(boolean))
	c.op("AnyTrue", boolean, c.list(boolean))
}

func (c *catalog) conversions() {
	c.conv(ImplicitConversion, "ToDecimal", integer, decimal)
	c.conv(ImplicitConversion, "ToQuantity", integer, quantity)
	c.conv(ImplicitConversion, "ToQuantity", decimal, quantity)
	c.conv(ImplicitConversion, "ToConcept", cql.TypeCode, cql.TypeConcept)
	c.conv(ExplicitConversion, "ToConcept", c.list(cql.TypeCode), cql.TypeConcept)
	c.conv(ExplicitConversion, "ToBoolean", str, boolean)
	c.conv(ExplicitConversion, "ToInteger", str, integer)
	c.conv(ExplicitConversion, "ToInteger", boolean, integer)
	c.conv(ExplicitConversion, "ToDecimal", str, decimal)
	c.conv(ExplicitConversion, "ToDateTime", str, datetime)
	c.conv(ExplicitConversion, "ToTime", str, timeType)
	c.conv(ExplicitConversion, "ToQuantity", str, quantity)
	for _, t := range []cql.Type{boolean, integer, decimal, quantity, datetime, timeType} {
		c.conv(ExplicitConversion, "ToString", t, str)
	}
}

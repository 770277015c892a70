package managed

import (
	"fmt"
	"math"
)

// FloatEqual reports whether a and b agree within a tolerance of
// 10% of their magnitude plus 0.1. It is loose enough to accept
// results that differ only by evaluation order, and is suitable
// as the equality function of a cache of floating-point values.
func FloatEqual(a, b float64) bool {
	return math.Abs(a-b) < .1*math.Abs(a+b)+.1
}

// CheckUsageFloatEqual raises an [ErrUsage] fault if a and b
// differ according to [FloatEqual] and usage checks are enabled.
func (c *Context) CheckUsageFloatEqual(a, b float64, format string, args ...any) {
	if c.IfCheck(Usage) && !FloatEqual(a, b) {
		c.fault(ErrUsage, "%g != %g - %s", a, b, fmt.Sprintf(format, args...))
	}
}

// CheckInternalFloatEqual is like [Context.CheckUsageFloatEqual]
// for internal checks.
func (c *Context) CheckInternalFloatEqual(a, b float64, format string, args ...any) {
	if c.IfCheck(UsageAndInternal) && !FloatEqual(a, b) {
		c.fault(ErrInternal, "%g != %g - %s", a, b, fmt.Sprintf(format, args...))
	}
}

// CheckUsageFloatEqual calls [Context.CheckUsageFloatEqual]
// on the process context.
func CheckUsageFloatEqual(a, b float64, format string, args ...any) {
	process.CheckUsageFloatEqual(a, b, format, args...)
}

// CheckInternalFloatEqual calls [Context.CheckInternalFloatEqual]
// on the process context.
func CheckInternalFloatEqual(a, b float64, format string, args ...any) {
	process.CheckInternalFloatEqual(a, b, format, args...)
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuotaScale is the number of decimal places quotas, prices and values are
// rounded to before they are stored.
const QuotaScale = 8

// ValueTolerance is the accepted difference between a lot's value and
// quotas × unit price, in currency units.
var ValueTolerance = decimal.New(1, -2)

// Invalid wraps ErrValidationFailed with a message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// ValidateDateOrder enforces request <= pricing <= settlement over whichever
// dates are present.
func ValidateDateOrder(request time.Time, pricing, settlement *time.Time) error {
	if request.IsZero() {
		return Invalid("request date is required")
	}
	if pricing != nil && pricing.Before(request) {
		return Invalid("pricing date %s precedes request date %s", day(*pricing), day(request))
	}
	if settlement != nil {
		if settlement.Before(request) {
			return Invalid("settlement date %s precedes request date %s", day(*settlement), day(request))
		}
		if pricing != nil && settlement.Before(*pricing) {
			return Invalid("settlement date %s precedes pricing date %s", day(*settlement), day(*pricing))
		}
	}
	return nil
}

// ValidateQuotaValue checks |value - quotas*unitPrice| <= ValueTolerance.
func ValidateQuotaValue(quotas, unitPrice, value decimal.Decimal) error {
	diff := value.Sub(quotas.Mul(unitPrice)).Abs()
	if diff.GreaterThan(ValueTolerance) {
		return Invalid("value %s differs from quotas %s x unit price %s by %s", value, quotas, unitPrice, diff)
	}
	return nil
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}

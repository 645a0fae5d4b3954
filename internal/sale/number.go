package sale

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sale numbers look like V-20260831-0001: a date prefix plus a 4-digit
// sequence that restarts every calendar day. Uniqueness under
// concurrency comes from computing the next number inside the same
// transaction as the insert, backed by a unique index on sale_number.

// SaleNumberPrefix returns the date-scoped prefix for t, e.g. "V-20260831".
func SaleNumberPrefix(t time.Time) string {
	return "V-" + t.Format("20060102")
}

// NextSaleNumber computes the number following last within prefix.
// last is the highest sale number already issued for the prefix, or ""
// when no sale exists for that day. A last value with an unparseable
// suffix counts as sequence 0, never as an error.
func NextSaleNumber(prefix, last string) string {
	next := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, next)
}

// Package finance derives dashboard figures from payment and expense
// records. Every function here is total: malformed records are coerced or
// skipped, never reported.
package finance

import (
	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
)

// Amounted is implemented by records that carry a money amount.
type Amounted interface {
	AmountValue() core.Amount
}

// Dated is implemented by records that carry a calendar date.
type Dated interface {
	When() core.Date
}

// TotalAmount sums the records' amounts. Missing, non-numeric and negative
// amounts count as zero.
func TotalAmount[T Amounted](records []T) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AmountValue().Contribution())
	}
	return total
}

// NetIncome is total income minus total expenses. It may be negative.
func NetIncome(payments []core.Payment, expenses []core.Expense) decimal.Decimal {
	return TotalAmount(payments).Sub(TotalAmount(expenses))
}

// DistinctPayingEntities counts the distinct non-empty student ids across
// payments.
func DistinctPayingEntities(payments []core.Payment) int {
	seen := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		if p.StudentID == "" {
			continue
		}
		seen[p.StudentID] = struct{}{}
	}
	return len(seen)
}

// MonthBuckets maps month keys to records. Keys iterate in first-seen order
// and records keep their input order within a bucket.
type MonthBuckets[T any] struct {
	keys    []core.MonthKey
	buckets map[core.MonthKey][]T
}

func (b MonthBuckets[T]) Keys() []core.MonthKey {
	return append([]core.MonthKey(nil), b.keys...)
}

func (b MonthBuckets[T]) Get(key core.MonthKey) []T {
	return b.buckets[key]
}

func (b MonthBuckets[T]) Len() int {
	return len(b.keys)
}

// Flatten concatenates the buckets in key order.
func (b MonthBuckets[T]) Flatten() []T {
	var out []T
	for _, k := range b.keys {
		out = append(out, b.buckets[k]...)
	}
	return out
}

// GroupByMonth partitions records by month. Records without a readable date
// are dropped.
func GroupByMonth[T Dated](records []T) MonthBuckets[T] {
	b := MonthBuckets[T]{buckets: make(map[core.MonthKey][]T)}
	for _, r := range records {
		key := r.When().MonthKey()
		if key == "" {
			continue
		}
		if _, ok := b.buckets[key]; !ok {
			b.keys = append(b.keys, key)
		}
		b.buckets[key] = append(b.buckets[key], r)
	}
	return b
}

// GroupTotalsByGroup sums payments per group. Every group appears once, in
// input order, even with a zero total. Payments whose student is unknown or
// has no group count towards no group.
func GroupTotalsByGroup(payments []core.Payment, students []core.Student, groups []core.Group) []core.GroupTotal {
	studentGroup := make(map[string]string, len(students))
	for _, s := range students {
		if _, dup := studentGroup[s.ID]; !dup {
			studentGroup[s.ID] = s.GroupID
		}
	}

	sums := make(map[string]decimal.Decimal, len(groups))
	for _, p := range payments {
		groupID := studentGroup[p.StudentID]
		if p.StudentID == "" || groupID == "" {
			continue
		}
		sums[groupID] = sums[groupID].Add(p.Amount.Contribution())
	}

	out := make([]core.GroupTotal, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		total, ok := sums[g.ID]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, core.GroupTotal{GroupID: g.ID, GroupName: g.Name, Total: total})
	}
	return out
}

package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TieBreak selects which discount rule wins when several match the
// same (category, month). The source data does not define a selection
// rule, so the policy is an explicit configuration choice pending
// business confirmation.
type TieBreak string

const (
	// TieBreakCouponCode picks the first rule after a stable sort by
	// coupon code ascending. This is the default.
	TieBreakCouponCode TieBreak = "coupon_code"
	// TieBreakHighestRate picks the rule with the highest discount
	// percentage, coupon code ascending as a secondary key.
	TieBreakHighestRate TieBreak = "highest_rate"
)

// IsValid checks if the tie-break policy is known
func (t TieBreak) IsValid() bool {
	return t == TieBreakCouponCode || t == TieBreakHighestRate
}

type discountKey struct {
	category string
	month    time.Month
}

// ReferenceResolver resolves per-line discount and tax rates from the
// reference tables, tolerating absent matches.
//
// Absence is not an error: a missing discount rule or tax rate
// resolves to zero, mirroring the left-outer-join default the raw
// data relies on. The resolver is built once from its tables and is
// read-only afterwards, so it may be shared across goroutines without
// synchronization.
type ReferenceResolver struct {
	discounts map[discountKey]DiscountRule
	taxes     map[string]decimal.Decimal
	ambiguous map[discountKey]int // match count where >1 rule applied
}

// ResolverOption is a functional option for ReferenceResolver configuration
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	tieBreak TieBreak
}

// WithTieBreak sets the tie-break policy for ambiguous discount rules
func WithTieBreak(t TieBreak) ResolverOption {
	return func(c *resolverConfig) {
		if t.IsValid() {
			c.tieBreak = t
		}
	}
}

// NewReferenceResolver builds a resolver from the discount schedule
// and tax table. Ambiguous (category, month) pairs are collapsed to a
// single rule per the tie-break policy and recorded; they can be
// inspected via AmbiguousMatches.
func NewReferenceResolver(discounts []DiscountRule, taxes []TaxRate, opts ...ResolverOption) *ReferenceResolver {
	cfg := resolverConfig{tieBreak: TieBreakCouponCode}
	for _, opt := range opts {
		opt(&cfg)
	}

	grouped := make(map[discountKey][]DiscountRule)
	for _, rule := range discounts {
		k := discountKey{category: rule.Category, month: rule.Month}
		grouped[k] = append(grouped[k], rule)
	}

	r := &ReferenceResolver{
		discounts: make(map[discountKey]DiscountRule, len(grouped)),
		taxes:     make(map[string]decimal.Decimal, len(taxes)),
		ambiguous: make(map[discountKey]int),
	}
	for k, rules := range grouped {
		if len(rules) > 1 {
			r.ambiguous[k] = len(rules)
		}
		sort.SliceStable(rules, func(i, j int) bool {
			if cfg.tieBreak == TieBreakHighestRate && !rules[i].DiscountPct.Equal(rules[j].DiscountPct) {
				return rules[i].DiscountPct.GreaterThan(rules[j].DiscountPct)
			}
			return rules[i].CouponCode < rules[j].CouponCode
		})
		r.discounts[k] = rules[0]
	}
	for _, t := range taxes {
		r.taxes[t.Category] = t.Rate()
	}
	return r
}

// ResolveDiscount returns the effective discount rate in [0,1] for a
// line. The coupon must be actively used; otherwise the schedule is
// irrelevant and the rate is zero. A missing rule also resolves to
// zero.
func (r *ReferenceResolver) ResolveDiscount(category string, month time.Month, status CouponStatus) decimal.Decimal {
	if status != CouponUsed {
		return decimal.Zero
	}
	rule, ok := r.discounts[discountKey{category: category, month: month}]
	if !ok {
		return decimal.Zero
	}
	return rule.Rate()
}

// ResolveTax returns the effective GST rate in [0,1] for a category,
// zero when no rate is on file.
func (r *ReferenceResolver) ResolveTax(category string) decimal.Decimal {
	rate, ok := r.taxes[category]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// AmbiguousMatches reports how many (category, month) pairs had more
// than one matching discount rule and were collapsed by the tie-break.
func (r *ReferenceResolver) AmbiguousMatches() int {
	return len(r.ambiguous)
}

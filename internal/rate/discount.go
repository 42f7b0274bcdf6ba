package rate

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lookupKey joins carrier/zone pairs across tables whose names are typed
// by hand, so "Proveedor 1" and "PROVEEDOR1" refer to the same carrier.
type lookupKey struct {
	carrier string
	zone    string
}

func newLookupKey(carrier, zone string) lookupKey {
	return lookupKey{carrier: NormalizeName(carrier), zone: NormalizeName(zone)}
}

// NormalizeName trims, upper-cases and strips internal whitespace.
func NormalizeName(s string) string {
	// Casers keep state and must not be shared between goroutines.
	upper := cases.Upper(language.Und).String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(upper), "")
}

// DiscountBook indexes one user's discounts by normalized carrier and zone.
type DiscountBook struct {
	exact    map[lookupKey]float64
	carriers map[string]float64
	warnings []Warning
}

// NewDiscountBook keeps the discounts belonging to userID. When several
// records normalize to the same key the first one wins.
func NewDiscountBook(userID string, discounts []Discount) *DiscountBook {
	b := &DiscountBook{
		exact:    make(map[lookupKey]float64),
		carriers: make(map[string]float64),
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return b
	}
	for _, d := range discounts {
		if strings.TrimSpace(d.UserID) != userID {
			continue
		}
		key := newLookupKey(d.Carrier, d.Zone)
		if key.zone == "" {
			if _, dup := b.carriers[key.carrier]; dup {
				b.duplicate(d)
				continue
			}
			b.carriers[key.carrier] = d.Fraction
			continue
		}
		if _, dup := b.exact[key]; dup {
			b.duplicate(d)
			continue
		}
		b.exact[key] = d.Fraction
	}
	return b
}

func (b *DiscountBook) duplicate(d Discount) {
	b.warnings = append(b.warnings, Warning{
		Code:    WarnDuplicateDiscount,
		Carrier: d.Carrier,
		Zone:    d.Zone,
		Message: fmt.Sprintf("ignoring duplicate discount %.4f", d.Fraction),
	})
}

// For returns the discount fraction for carrier/zone. A zone-specific record
// beats a carrier-wide one; no record means 0 and ok=false.
func (b *DiscountBook) For(carrier, zone string) (float64, bool) {
	if b == nil {
		return 0, false
	}
	key := newLookupKey(carrier, zone)
	if f, ok := b.exact[key]; ok {
		return f, true
	}
	if f, ok := b.carriers[key.carrier]; ok {
		return f, true
	}
	return 0, false
}

// Warnings lists the duplicate records skipped while building the book.
func (b *DiscountBook) Warnings() []Warning {
	if b == nil {
		return nil
	}
	return b.warnings
}

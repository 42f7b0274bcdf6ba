package rate

import "sort"

// Candidate is a carrier/zone pair whose coverage accepts a shipment.
type Candidate struct {
	Carrier     string
	Zone        string
	Periodicity string
	Mode        ValidationMode
}

// FindCoverage returns the candidates whose coverage rules accept s. Rules
// whose carrier and zone differ only in case or spacing yield one candidate.
// The result is sorted, so it does not depend on rule order.
func FindCoverage(s Shipment, rules []CoverageRule) []Candidate {
	type candidateKey struct {
		lookupKey
		periodicity string
		mode        ValidationMode
	}
	seen := make(map[candidateKey]Candidate)
	for _, r := range rules {
		if NormalizePostalCode(r.Destination, s.postalWidth) != s.destination {
			continue
		}
		if !r.accepts(s) {
			continue
		}
		c := Candidate{Carrier: r.Carrier, Zone: r.Zone, Periodicity: r.Periodicity, Mode: r.Mode}
		key := candidateKey{
			lookupKey:   newLookupKey(r.Carrier, r.Zone),
			periodicity: NormalizeName(r.Periodicity),
			mode:        r.Mode,
		}
		// Keep the lowest spelling so the result is order independent.
		if prev, dup := seen[key]; dup && !candidateLess(c, prev) {
			continue
		}
		seen[key] = c
	}
	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return candidateLess(out[i], out[j]) })
	return out
}

func candidateLess(a, b Candidate) bool {
	if a.Carrier != b.Carrier {
		return a.Carrier < b.Carrier
	}
	if a.Zone != b.Zone {
		return a.Zone < b.Zone
	}
	if a.Periodicity != b.Periodicity {
		return a.Periodicity < b.Periodicity
	}
	return a.Mode < b.Mode
}

func (r CoverageRule) accepts(s Shipment) bool {
	if r.Mode == ModeVolume {
		return atLeast(r.MaxWeight, s.realWeight) && atLeast(r.MaxVolume, s.volume)
	}
	return atLeast(r.MaxLength, s.length) &&
		atLeast(r.MaxWidth, s.width) &&
		atLeast(r.MaxHeight, s.height) &&
		atLeast(r.MaxWeight, s.realWeight)
}

// atLeast reports limit >= v; an unset limit never matches.
func atLeast(limit *float64, v float64) bool {
	return limit != nil && *limit >= v
}

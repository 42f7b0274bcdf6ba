package rate

// Outcome classifies a resolution.
type Outcome string

const (
	OutcomeQuoted             Outcome = "quoted"
	OutcomeNoCoverage         Outcome = "no_coverage"
	OutcomeNoApplicableTariff Outcome = "no_applicable_tariff"
)

// Snapshot is the reference data read once for a single resolution.
type Snapshot struct {
	Coverage  []CoverageRule
	Tariffs   []TariffRule
	Discounts []Discount
}

// Request is one quote request made on behalf of an authenticated user.
type Request struct {
	UserID   string
	Shipment Shipment
}

// Result is the outcome of resolving a Request.
type Result struct {
	Outcome    Outcome
	Shipment   Shipment
	Candidates []Candidate
	Options    []QuoteOption
	Warnings   []Warning
}

// Resolve quotes req against snap. It does not modify snap.
func Resolve(req Request, snap Snapshot) Result {
	res := Result{Shipment: req.Shipment}
	res.Candidates = FindCoverage(req.Shipment, snap.Coverage)
	if len(res.Candidates) == 0 {
		res.Outcome = OutcomeNoCoverage
		return res
	}

	var priced []QuoteOption
	for _, c := range res.Candidates {
		opts, warns := PriceCandidate(c, req.Shipment, snap.Tariffs)
		priced = append(priced, opts...)
		res.Warnings = append(res.Warnings, warns...)
	}
	if len(priced) == 0 {
		res.Outcome = OutcomeNoApplicableTariff
		return res
	}

	book := NewDiscountBook(req.UserID, snap.Discounts)
	res.Warnings = append(res.Warnings, book.Warnings()...)
	res.Options = Rank(priced, book)
	res.Outcome = OutcomeQuoted
	return res
}

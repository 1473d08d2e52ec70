package corscheck

// OriginMatch classifies the Access-Control-Allow-Origin value the backend
// returned against the origin we declared. Exact string comparison only.
type OriginMatch string

const (
	MatchWildcard OriginMatch = "wildcard"
	MatchExact    OriginMatch = "exact"
	MatchMismatch OriginMatch = "mismatch"
)

func ClassifyOrigin(value, origin string) OriginMatch {
	switch value {
	case "*":
		return MatchWildcard
	case origin:
		return MatchExact
	default:
		return MatchMismatch
	}
}

// Verdict is the aggregate outcome of a probe run against a reachable backend.
type Verdict string

const (
	FullyWorking     Verdict = "fully_working"
	PartiallyWorking Verdict = "partially_working"
	NotWorking       Verdict = "not_working"
)

func computeVerdict(headerPresent, preflightOK, functionalOK bool) Verdict {
	switch {
	case headerPresent && preflightOK && functionalOK:
		return FullyWorking
	case !headerPresent:
		return NotWorking
	default:
		return PartiallyWorking
	}
}

package report

import "signalbot/types"

// ShouldAlert applies the alert rule: confidence and impact must both meet
// their thresholds and the direction must not be Neutral. A hard AND of
// three predicates; the complexity of this system lives in parsing, not in
// scoring.
func ShouldAlert(d types.Decision, confidenceThreshold, impactThreshold int) bool {
	return d.Confidence >= confidenceThreshold &&
		d.Impact >= impactThreshold &&
		!d.IsNeutral()
}

package risk

// Violation is one guardrail breach found while evaluating a trade.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of a CanOpen query. Violations are listed in
// evaluation order; any violation means the trade is rejected.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the first violation code, or "" when allowed.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Guardrail violation codes.
const (
	CodeDailyLoss     = "DAILY_LOSS_LIMIT"
	CodeOpenTrades    = "TOO_MANY_OPEN_TRADES"
	CodeExposure      = "EXPOSURE_LIMIT"
	CodeLossStreak    = "LOSS_STREAK"
	CodeDrawdownLimit = "DRAWDOWN_LIMIT"
)

package valueobject

// BehavioralSignals are the self-reported usage answers of a limit check.
type BehavioralSignals struct {
	PayFast      bool // repays within 3 days
	FrequentUser bool // transacts more than 5 times a month
	HighInflow   bool // monthly inflow above 5x the current limit
	Stagnant     bool // limit unchanged for more than 3 months
}

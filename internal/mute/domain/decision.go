package domain

// Decision represents the outcome of evaluating one content element against
// the active rule sets. Pure value type, no external dependencies.
type Decision struct {
	Hidden   bool     // true if the element is hidden by any rule
	Category Category // category of the matching rule (valid only when Hidden)
	Rule     string   // normalized rule entry that matched
}

// IsHidden is a convenience accessor.
func (d Decision) IsHidden() bool { return d.Hidden }

// EmptyDecision returns a not-hidden decision.
func EmptyDecision() Decision { return Decision{Hidden: false} }

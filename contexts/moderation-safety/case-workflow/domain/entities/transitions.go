package entities

// legalTransitions is the case status table. Appeals reopen terminal
// statuses to in_review; escalation is reachable without assignment.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusInReview:  true,
		StatusEscalated: true,
	},
	StatusInReview: {
		StatusInReview:  true,
		StatusResolved:  true,
		StatusDismissed: true,
		StatusEscalated: true,
	},
	StatusResolved: {
		StatusInReview: true,
	},
	StatusDismissed: {
		StatusInReview: true,
	},
	StatusEscalated: {
		StatusInReview: true,
	},
}

// CanTransition reports whether moving from one status to another is in
// the transition table. Self-transitions are legal only for in_review.
func CanTransition(from, to Status) bool {
	return legalTransitions[from][to]
}

package metrics

// Attribute keys shared by every instrument.
const (
	AttrMethod  = "method"
	AttrPath    = "path"
	AttrStatus  = "status"
	AttrOutcome = "outcome"
	AttrKind    = "kind"
	AttrSource  = "source"
)

// Outcomes attached to assignment and task metrics.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

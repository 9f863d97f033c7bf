package harness

// Trace event kinds.
const (
	KindLifted      = "lifted"
	KindLevelClosed = "level_closed"
	KindPlanError   = "plan_error"
	KindFired       = "fired"
	KindSkipped     = "skipped"
	KindOutput      = "output"
	KindError       = "error"
)

// TraceEvent is one line of a scenario trace. Plan events carry no case.
type TraceEvent struct {
	Case   string `json:"case,omitempty"`
	Seq    int64  `json:"seq,omitempty"`
	Kind   string `json:"kind"`
	Level  int    `json:"level"`
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// hasLevel reports whether the event kind is tied to a plan level.
func (e TraceEvent) hasLevel() bool {
	switch e.Kind {
	case KindLifted, KindLevelClosed, KindFired, KindSkipped:
		return true
	}
	return false
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Trace holds plan events followed by each case's firings in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

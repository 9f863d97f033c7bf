package queryir

// Query is a query node. Sealed to this package.
type Query interface {
	queryNode()
}

// Predicate is a filter condition. Sealed to this package.
type Predicate interface {
	predicateNode()
}

// Runs selects recorded evaluations in log order (seq ascending).
type Runs struct {
	Plan   string    // Plan hash; empty means every plan
	Filter Predicate // nil means no filter
	Limit  int       // 0 means no limit
}

func (Runs) queryNode() {}

// Firings selects the trace entries of one run in firing order.
type Firings struct {
	Run    string    // Run id (required)
	Filter Predicate // nil means no filter
}

func (Firings) queryNode() {}

// InputEquals holds when the run's input bound Var to Value.
type InputEquals struct {
	Var   string
	Value string
}

func (InputEquals) predicateNode() {}

// OutputEquals holds when the run's output reported Var = Value.
type OutputEquals struct {
	Var   string
	Value string
}

func (OutputEquals) predicateNode() {}

// OutputUnset holds when the run's output reported Var as unset.
// Variables that are not outputs of the plan never match.
type OutputUnset struct {
	Var string
}

func (OutputUnset) predicateNode() {}

// RuleFired holds when rule Rule (index into the plan's rules) fired.
type RuleFired struct {
	Rule int
}

func (RuleFired) predicateNode() {}

// FiredOnly keeps only firings whose predicate held.
type FiredOnly struct{}

func (FiredOnly) predicateNode() {}

// LevelEquals keeps firings at one plan level.
type LevelEquals struct {
	Level int
}

func (LevelEquals) predicateNode() {}

// RuleEquals keeps firings of one rule.
type RuleEquals struct {
	Rule int
}

func (RuleEquals) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

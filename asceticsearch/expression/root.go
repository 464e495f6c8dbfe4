package expression

type StageKind int

const (
	StageNormal StageKind = iota
	StageChain
	StageInclude
	StageSort
	StageCompartment
	StageAll
)

func (k StageKind) String() string {
	switch k {
	case StageNormal:
		return "Normal"
	case StageChain:
		return "Chain"
	case StageInclude:
		return "Include"
	case StageSort:
		return "Sort"
	case StageCompartment:
		return "Compartment"
	case StageAll:
		return "All"
	default:
		return "Unknown"
	}
}

// Stage becomes one common table expression; it filters the rows of the
// stage before it.
type Stage struct {
	kind          StageKind
	predicate     Visitable
	chainLevel    int
	partitionHint []int16
}

func NewStage(kind StageKind, predicate Visitable) Stage {
	return Stage{
		kind:      kind,
		predicate: predicate,
	}
}

func AllStage() Stage {
	return Stage{kind: StageAll}
}

func (s Stage) Kind() StageKind {
	return s.kind
}
func (s Stage) Predicate() Visitable {
	return s.predicate
}

// ChainLevel is 1..n for chain links and the chain terminal, 0 otherwise.
func (s Stage) ChainLevel() int {
	return s.chainLevel
}

// PartitionHint lists resource type ids the stage can be restricted to.
func (s Stage) PartitionHint() []int16 {
	return append([]int16(nil), s.partitionHint...)
}

func (s Stage) WithPredicate(predicate Visitable) Stage {
	s.predicate = predicate
	return s
}

func (s Stage) WithChainLevel(level int) Stage {
	s.chainLevel = level
	return s
}

func (s Stage) WithPartitionHint(hint []int16) Stage {
	s.partitionHint = append([]int16(nil), hint...)
	return s
}

func (s Stage) String() string {
	if s.predicate == nil {
		return s.kind.String()
	}
	return s.kind.String() + "(" + Format(s.predicate) + ")"
}

type Root struct {
	stages             []Stage
	resourcePredicates []Visitable
	partitionHint      []int16
}

func NewRoot(stages []Stage, resourcePredicates []Visitable) Root {
	return Root{
		stages:             append([]Stage(nil), stages...),
		resourcePredicates: append([]Visitable(nil), resourcePredicates...),
	}
}

func (r Root) Stages() []Stage {
	return append([]Stage(nil), r.stages...)
}

// ResourcePredicates filter dbo.Resource columns in the final select.
func (r Root) ResourcePredicates() []Visitable {
	return append([]Visitable(nil), r.resourcePredicates...)
}

func (r Root) PartitionHint() []int16 {
	return append([]int16(nil), r.partitionHint...)
}

func (r Root) WithStages(stages []Stage) Root {
	r.stages = append([]Stage(nil), stages...)
	return r
}

func (r Root) WithResourcePredicates(predicates []Visitable) Root {
	r.resourcePredicates = append([]Visitable(nil), predicates...)
	return r
}

func (r Root) WithPartitionHint(hint []int16) Root {
	r.partitionHint = append([]int16(nil), hint...)
	return r
}

func (r Root) HasStage(kind StageKind) bool {
	for _, s := range r.stages {
		if s.kind == kind {
			return true
		}
	}
	return false
}

func (r Root) String() string {
	out := "Root("
	for i, s := range r.stages {
		if i > 0 {
			out += ", "
		}
		out += s.String()
	}
	for _, p := range r.resourcePredicates {
		out += ", Resource(" + Format(p) + ")"
	}
	return out + ")"
}

package crawl

type State int

const (
	StateInitial State = iota
	StateTerminal
)

func (s State) String() string {
	if s == StateTerminal {
		return "terminal"
	}
	return "initial"
}

// PageLoad models one load of an emitted page. The first call to Run takes
// a branch; every later call returns that same decision.
type PageLoad struct {
	state          State
	classification Classification
	decision       Decision
}

func NewPageLoad() *PageLoad {
	return &PageLoad{}
}

func (p *PageLoad) Run(userAgent string) Decision {
	if p.state == StateTerminal {
		return p.decision
	}
	p.classification = Classify(userAgent)
	p.decision = Decide(p.classification)
	p.state = StateTerminal
	return p.decision
}

func (p *PageLoad) State() State {
	return p.state
}

func (p *PageLoad) Classification() Classification {
	return p.classification
}

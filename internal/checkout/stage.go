package checkout

type Stage string

const (
	StageShipping Stage = "SHIPPING"
	StagePayment  Stage = "PAYMENT"
	StagePlaced   Stage = "PLACED"
)

var validNext = map[Stage]map[Stage]bool{
	StageShipping: {StagePayment: true},
	StagePayment:  {StageShipping: true, StagePlaced: true},
	StagePlaced:   {StagePayment: true},
}

func CanTransition(from, to Stage) bool {
	return validNext[from][to]
}

func (s Stage) String() string { return string(s) }

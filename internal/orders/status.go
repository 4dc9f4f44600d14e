package orders

type Status string

// CREATED means only the header exists. Items are written together with the
// move to ITEMS_RECORDED, so a header stuck in CREATED is an order whose
// item write failed.
const (
	StatusCreated       Status = "CREATED"
	StatusItemsRecorded Status = "ITEMS_RECORDED"
	StatusConfirmed     Status = "CONFIRMED"
)

var validNext = map[Status]map[Status]bool{
	StatusCreated:       {StatusItemsRecorded: true},
	StatusItemsRecorded: {StatusConfirmed: true},
	StatusConfirmed:     {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

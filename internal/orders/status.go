package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusFulfilled Status = "fulfilled"
)

// validNext encodes the lifecycle: fulfilled and cancelled are terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusFulfilled: true, StatusCancelled: true},
	StatusFulfilled: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}

func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}

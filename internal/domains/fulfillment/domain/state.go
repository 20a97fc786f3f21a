package domain

// State is the fulfillment progress of one order operation.
type State string

const (
	StateCreated           State = "created"
	StateInventoryReserved State = "inventory_reserved"
	StateDeliveryScheduled State = "delivery_scheduled"
	StateWarehouseTasked   State = "warehouse_tasked"
	StateCompleted         State = "completed"
	StatePartiallyFailed   State = "partially_failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StatePartiallyFailed
}

// CanTransition reports whether from -> to follows the fulfillment sequence. Any
// non-terminal state may fail into partially_failed.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StatePartiallyFailed {
		return true
	}
	return stateRank(to) == stateRank(from)+1
}

// StateAfter returns the state reached once step has been recorded.
func StateAfter(step StepName) State {
	switch step {
	case StepInventory:
		return StateInventoryReserved
	case StepDelivery:
		return StateDeliveryScheduled
	case StepWarehouse:
		return StateWarehouseTasked
	default:
		return ""
	}
}

func stateRank(s State) int {
	switch s {
	case StateCreated:
		return 0
	case StateInventoryReserved:
		return 1
	case StateDeliveryScheduled:
		return 2
	case StateWarehouseTasked:
		return 3
	case StateCompleted:
		return 4
	default:
		return -1
	}
}

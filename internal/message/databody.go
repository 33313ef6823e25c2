package message

// DataMsg wraps a Data payload as a standalone LightClientBody. Per
// spec.md §4.3, a Data message received outside of an Aggregate is a
// bug (aggregated data leaked) -- the dispatcher logs and drops it
// rather than panicking (spec.md §9, kept lenient deliberately).
type DataMsg struct {
	Payload Data
}

func (DataMsg) bodyKind() string { return "data" }

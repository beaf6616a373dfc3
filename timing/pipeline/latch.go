package pipeline

// IfIdData is the packet Fetch hands to Decode: a raw fetched word plus the
// prediction metadata stamped at fetch time, matching spec §4.4.1 step 4.
type IfIdData struct {
	Raw             uint32
	PC              uint32
	PredictedTaken  bool
	PredictedTarget uint32
}

// Outcome is one stage's per-cycle result, used both to drive Statistics
// and to render the disassembly trace (spec §13's supplemented feature).
type Outcome struct {
	Trace   string
	Stalled bool
	Flushed bool
	Retired bool
}

package bpu

// BPEntry is one branch target buffer slot: a local history register of
// width predictionLevel indexing 2^predictionLevel saturating counters, plus
// the last-observed target. With predictionLevel == 0 this degenerates to a
// single bimodal counter (spec §4.2's rationale paragraph).
//
// Grounded line-for-line on original_source/perf_sim/bpu/bpu.cpp's
// BPEntry::reset/BPEntry::update — including the saturating-counter "add
// then bitwise-complement on carry" trick (Design Note 9) and the resolved
// Open Question (reset only on a taken branch whose target changed).
type BPEntry struct {
	stateTable     []uint32
	currentPattern uint32
	target         uint64

	meanState   uint32
	patternMask uint32
}

func newBPEntry(meanState, patternMask uint32) BPEntry {
	e := BPEntry{
		meanState:   meanState,
		patternMask: patternMask,
		stateTable:  make([]uint32, patternMask+1),
	}
	e.reset()

	return e
}

func (e *BPEntry) reset() {
	defaultState := e.meanState - 1
	for i := range e.stateTable {
		e.stateTable[i] = defaultState
	}
	e.currentPattern = 0
}

// IsTaken reports the prediction for the entry's current history pattern.
func (e *BPEntry) IsTaken() bool {
	return e.stateTable[e.currentPattern]&e.meanState != 0
}

// Target is the entry's last-trained branch target.
func (e *BPEntry) Target() uint64 {
	return e.target
}

func (e *BPEntry) update(actuallyTaken bool, target uint64) {
	// A reset leaves the entry freshly initialised: the outcome that
	// triggered it is not counted, so the entry predicts not-taken until the
	// next taken update to the same target.
	if actuallyTaken && e.target != target {
		e.reset()
		e.target = target
		return
	}

	// Masking after shifting the new bit in (rather than before, as the
	// original literally writes it) is behaviourally identical for any
	// predictionLevel >= 1 — masking only ever discards bits the shift
	// pushed out, never the freshly OR'd-in low bit — but it is also the
	// form that stays in range when predictionLevel == 0 (patternMask==0,
	// the bimodal case): masking before would let the OR'd bit survive
	// unmasked and index past the single-counter table.
	e.currentPattern = ((e.currentPattern << 1) | boolToBit(actuallyTaken)) & e.patternMask

	state := e.stateTable[e.currentPattern]
	if actuallyTaken {
		state++
	} else {
		state--
	}

	// Saturation trick: if the carry bit (meanState<<1) got set, either by
	// overflowing past 2*meanState-1 or by underflowing 0-1 to all-ones,
	// the bitwise complement masked to the counter width clamps back to
	// the nearer boundary (max or 0 respectively).
	if state&(e.meanState<<1) != 0 {
		state = (^state) & ((e.meanState << 1) - 1)
	}

	e.stateTable[e.currentPattern] = state
}

func boolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// BPU is a set-associative branch target buffer with bimodal or two-level
// adaptive saturating-counter entries, grounded on original_source/perf_sim/bpu/bpu.cpp.
//
// Design Note 9 records that the source carries two competing revisions;
// this implements the later one: update(taken, branch_ip, target), with
// getSetNum indexed on the lookup PC rather than the legacy branch_ip-only
// form in bpu.h.
type BPU struct {
	predictionBits  uint32
	meanState       uint32
	predictionLevel uint32
	patternMask     uint32
	setMask         uint64

	data [][]BPEntry // data[way][set]
	tags *CacheTagArray
}

// Config is the BPU's immutable construction configuration (spec §3).
type Config struct {
	SizeInEntries   uint64
	Ways            uint64
	PredictionBits  uint32 // counter width; default 2
	PredictionLevel uint32 // history width; default 0 (bimodal)
	BranchIPBits    uint32 // address width in bits; default 32
}

// New constructs a BPU, validating configuration per spec §4.2/§8's
// boundary cases (all delegated to the tag array's own checks, since the
// BTB is implemented as a tag array with a one-entry block size).
func New(cfg Config) (*BPU, error) {
	if cfg.PredictionBits == 0 {
		cfg.PredictionBits = 2
	}
	if cfg.BranchIPBits == 0 {
		cfg.BranchIPBits = 32
	}

	tags, err := NewCacheTagArray(cfg.SizeInEntries, cfg.Ways, 1)
	if err != nil {
		return nil, err
	}

	meanState := uint32(1) << (cfg.PredictionBits - 1)
	patternMask := (uint32(1) << cfg.PredictionLevel) - 1
	setsPerWay := cfg.SizeInEntries / cfg.Ways

	data := make([][]BPEntry, cfg.Ways)
	for w := range data {
		data[w] = make([]BPEntry, setsPerWay)
		for s := range data[w] {
			data[w][s] = newBPEntry(meanState, patternMask)
		}
	}

	return &BPU{
		predictionBits:  cfg.PredictionBits,
		meanState:       meanState,
		predictionLevel: cfg.PredictionLevel,
		patternMask:     patternMask,
		setMask:         setsPerWay - 1,
		data:            data,
		tags:            tags,
	}, nil
}

func (b *BPU) getSetNum(addr uint64) uint64 {
	return addr & b.setMask
}

// PredictTaken looks up PC and reports the predicted direction. A tag miss
// always predicts not-taken, per spec §4.2.
func (b *BPU) PredictTaken(pc uint64) bool {
	hit, way := b.tags.Read(pc)
	if !hit {
		return false
	}

	return b.data[way][b.getSetNum(pc)].IsTaken()
}

// GetTarget returns PC's predicted target: the stored branch target on a
// taken prediction, or PC+4 otherwise.
func (b *BPU) GetTarget(pc uint64) uint64 {
	hit, way := b.tags.Read(pc)
	if hit {
		entry := &b.data[way][b.getSetNum(pc)]
		if entry.IsTaken() {
			return entry.Target()
		}
	}

	return pc + 4
}

// Update trains the entry for branchIP with the actual outcome, per the
// algorithm in spec §4.2. A branchIP already in the BTB trains its existing
// entry; otherwise a way is allocated for it.
func (b *BPU) Update(actuallyTaken bool, branchIP, target uint64) {
	hit, way := b.tags.Read(branchIP)
	if !hit {
		way = b.tags.Write(branchIP)
	}
	b.data[way][b.getSetNum(branchIP)].update(actuallyTaken, target)
}

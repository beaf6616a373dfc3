// Package bpu implements the branch prediction unit (spec §3/§4.2): a
// set-associative branch target buffer whose entries carry bimodal or
// two-level adaptive saturating counters.
//
// CacheTagArray is grounded directly on original_source/perf_sim/mem/cache_tag_array.cpp
// (MIPT-MIPS Assignment 5, Ladin Oleg): same validation rules, same
// getSetNum/getTagNum bit arithmetic, same LRU-victim allocation contract.
// The BPU's comment in bpu.h explains why a byte-addressed tag array serves
// as a BTB here too: block size is fixed at 1 "byte" (one BTB entry) so the
// cache's tag/set arithmetic lines up directly with branch addresses.
package bpu

import "fmt"

type tagLine struct {
	tag     uint64
	isValid bool
}

// CacheTagArray is an N-way set-associative tag store with LRU replacement.
type CacheTagArray struct {
	sizeInBytes    uint64
	ways           uint64
	blockSizeBytes uint64
	setsPerWay     uint64
	setMask        uint64

	lines [][]tagLine // lines[way][set]
	lru   *lruInfo
}

// NewCacheTagArray validates its arguments (spec §3/§8 boundary cases) and
// constructs a tag array with the given total capacity, associativity and
// block size, all expressed in the same unit (bytes, or BTB entries when
// used as a BTB with blockSizeBytes == 1).
func NewCacheTagArray(sizeInBytes, ways, blockSizeBytes uint64) (*CacheTagArray, error) {
	if err := checkCacheArgs(sizeInBytes, ways, blockSizeBytes); err != nil {
		return nil, err
	}

	setsPerWay := sizeInBytes / (ways * blockSizeBytes)

	lines := make([][]tagLine, ways)
	for w := range lines {
		lines[w] = make([]tagLine, setsPerWay)
	}

	return &CacheTagArray{
		sizeInBytes:    sizeInBytes,
		ways:           ways,
		blockSizeBytes: blockSizeBytes,
		setsPerWay:     setsPerWay,
		setMask:        setsPerWay - 1,
		lines:          lines,
		lru:            newLRUInfo(ways, setsPerWay),
	}, nil
}

func checkCacheArgs(sizeInBytes, ways, blockSizeBytes uint64) error {
	if sizeInBytes == 0 || ways == 0 || blockSizeBytes == 0 {
		return fmt.Errorf("bpu: size, ways and block size must all be greater than zero")
	}

	if sizeInBytes/ways < blockSizeBytes {
		return fmt.Errorf("bpu: size %d too small for %d ways of block size %d", sizeInBytes, ways, blockSizeBytes)
	}

	if sizeInBytes%(blockSizeBytes*ways) != 0 {
		return fmt.Errorf("bpu: size %d must be a multiple of ways(%d) * block size(%d)", sizeInBytes, ways, blockSizeBytes)
	}

	setsPerWay := sizeInBytes / (ways * blockSizeBytes)
	if !isPowerOfTwo(setsPerWay) {
		return fmt.Errorf("bpu: sets per way (%d) must be a power of two", setsPerWay)
	}

	if !isPowerOfTwo(blockSizeBytes) {
		return fmt.Errorf("bpu: block size (%d) must be a power of two", blockSizeBytes)
	}

	return nil
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Read reports whether addr currently hits a valid line, and which way.
func (c *CacheTagArray) Read(addr uint64) (hit bool, way uint64) {
	set := c.getSetNum(addr)
	tag := c.getTagNum(addr)

	for w := uint64(0); w < c.ways; w++ {
		line := &c.lines[w][set]
		if line.tag != tag {
			continue
		}

		if !line.isValid {
			continue
		}

		c.lru.touch(set, w)

		return true, w
	}

	return false, 0
}

// Write allocates or re-validates a line for addr in the LRU-victim way and
// returns that way.
func (c *CacheTagArray) Write(addr uint64) (way uint64) {
	set := c.getSetNum(addr)
	way = c.lru.victim(set)

	c.lines[way][set] = tagLine{tag: c.getTagNum(addr), isValid: true}

	return way
}

func (c *CacheTagArray) getSetNum(addr uint64) uint64 {
	return (addr / c.blockSizeBytes) & c.setMask
}

func (c *CacheTagArray) getTagNum(addr uint64) uint64 {
	return addr / c.blockSizeBytes
}

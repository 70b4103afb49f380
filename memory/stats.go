package memory

// Stats wraps a Memory and counts the traffic through it.
type Stats struct {
	Memory Memory // Wrapped memory.

	Loads      int // Successful loads.
	Stores     int // Successful stores.
	LoadBytes  int // Bytes read by successful loads.
	StoreBytes int // Bytes written by successful stores.
	Faults     int // Accesses that returned an error.
}

var _ Memory = (*Stats)(nil)

// NewStats wraps mem.
func NewStats(mem Memory) *Stats {
	return &Stats{Memory: mem}
}

// Reset zeros the counters.
func (st *Stats) Reset() {
	st.Loads = 0
	st.Stores = 0
	st.LoadBytes = 0
	st.StoreBytes = 0
	st.Faults = 0
}

func (st *Stats) load(size int, err error) error {
	if err != nil {
		st.Faults++
	} else {
		st.Loads++
		st.LoadBytes += size
	}
	return err
}

func (st *Stats) store(size int, err error) error {
	if err != nil {
		st.Faults++
	} else {
		st.Stores++
		st.StoreBytes += size
	}
	return err
}

func (st *Stats) Load8(addr uint32) (value uint8, err error) {
	value, err = st.Memory.Load8(addr)
	err = st.load(1, err)
	return
}

func (st *Stats) Load16(addr uint32) (value uint16, err error) {
	value, err = st.Memory.Load16(addr)
	err = st.load(2, err)
	return
}

func (st *Stats) Load32(addr uint32) (value uint32, err error) {
	value, err = st.Memory.Load32(addr)
	err = st.load(4, err)
	return
}

func (st *Stats) Store8(addr uint32, value uint8) error {
	return st.store(1, st.Memory.Store8(addr, value))
}

func (st *Stats) Store16(addr uint32, value uint16) error {
	return st.store(2, st.Memory.Store16(addr, value))
}

func (st *Stats) Store32(addr uint32, value uint32) error {
	return st.store(4, st.Memory.Store32(addr, value))
}

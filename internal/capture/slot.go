package capture

// pixelSize is the sensor's pixel width in bytes. The SL-1510 always
// delivers 16-bit pixels.
const pixelSize = 2

// slot is the single reusable frame buffer. Its backing array is allocated
// once at open time, sized to the largest frame the sensor can report, and
// reused across captures so the delivery path never allocates. All fields
// are guarded by the session synchronizer's mutex.
type slot struct {
	width     uint32
	height    uint32
	data      []byte
	validSize int
}

// newSlot allocates a slot sized for maxWidth x maxHeight pixels.
func newSlot(maxWidth, maxHeight uint32) *slot {
	return &slot{
		data: make([]byte, int(maxWidth)*int(maxHeight)*pixelSize),
	}
}

// capacity reports the fixed size of the backing buffer in bytes.
func (s *slot) capacity() int {
	return len(s.data)
}

// store copies one delivered frame into the slot. The caller must hold the
// synchronizer's mutex and must have validated len(src) against capacity.
func (s *slot) store(width, height uint32, src []byte) {
	copy(s.data, src)
	s.width = width
	s.height = height
	s.validSize = len(src)
}

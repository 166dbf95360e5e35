package capture

// bitWriter packs values MSB-first, the order bitreader reads them back.
type bitWriter struct {
	buf []byte
	acc uint64
	n   uint // pending bits in acc
}

// write appends the low bits of v. bits must be in 1..32.
func (w *bitWriter) write(v uint32, bits uint) {
	w.acc = w.acc<<bits | uint64(v)&(1<<bits-1)
	w.n += bits
	for w.n >= 8 {
		w.n -= 8
		w.buf = append(w.buf, byte(w.acc>>w.n))
	}
}

// flush pads the last partial byte with zeros and returns the buffer.
func (w *bitWriter) flush() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.n)))
		w.n = 0
	}
	return w.buf
}

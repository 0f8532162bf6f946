package monitor

// priceHistory is a fixed-capacity ring of observed prices. Pushing onto a
// full ring overwrites the oldest sample.
type priceHistory struct {
	buf   []float64
	start int
	size  int
}

func newPriceHistory(capacity int) *priceHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &priceHistory{buf: make([]float64, capacity)}
}

func (h *priceHistory) Push(v float64) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = v
		h.size++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

func (h *priceHistory) Len() int {
	return h.size
}

// at indexes from the oldest retained sample.
func (h *priceHistory) at(i int) float64 {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Last returns up to n of the newest samples, oldest first.
func (h *priceHistory) Last(n int) []float64 {
	if n > h.size {
		n = h.size
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = h.at(h.size - n + i)
	}
	return out
}

// Previous is the sample before the newest one, or the newest itself when
// only one has been recorded.
func (h *priceHistory) Previous() float64 {
	switch h.size {
	case 0:
		return 0
	case 1:
		return h.at(0)
	default:
		return h.at(h.size - 2)
	}
}

package util

import "gonum.org/v1/gonum/stat"

// Window keeps the last N values and exposes their mean
type Window struct {
	size   int
	values []float64
	next   int
	filled bool
}

func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{
		size:   size,
		values: make([]float64, 0, size),
	}
}

func (w *Window) Push(v float64) {
	if len(w.values) < w.size {
		w.values = append(w.values, v)
		if len(w.values) == w.size {
			w.filled = true
		}
		return
	}
	w.values[w.next] = v
	w.next = (w.next + 1) % w.size
}

func (w *Window) Len() int {
	return len(w.values)
}

// Full reports whether the window holds size values
func (w *Window) Full() bool {
	return w.filled
}

func (w *Window) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	return stat.Mean(w.values, nil)
}

// Package filter implements the behind-window effects drawn under cache
// images: Gaussian blur, color matrix transforms and chains of both.
//
// Every filter satisfies surface.Filter. Apply processes the pixels
// sampled under a window and draws the result back at the same device
// rectangle. Filters hold no per-call state and may be shared between
// caches and threads.
package filter

// peaks.go
package paresampler

import "math"

// peaksMaxChannels bounds the per-channel running-max arrays; it only
// needs to cover the output channel count, which itself is capped by
// maxChannels.
const peaksMaxChannels = maxChannels

// peaksBackend ports the original's peaks_resample: a downsampling-only
// backend that tracks, for each output frame's time window, the maximum
// absolute sample value seen on each channel (an envelope follower
// rather than an interpolating resampler). Like trivialBackend it uses
// rational i_counter/o_counter arithmetic to decide window boundaries
// without float drift.
type peaksBackend struct {
	iCounter uint64
	oCounter uint64
	maxI     [peaksMaxChannels]int16
	maxF     [peaksMaxChannels]float32
}

func newPeaksBackend() *peaksBackend {
	return &peaksBackend{}
}

func (b *peaksBackend) init(r *Resampler) error {
	if r.inRate < r.outRate {
		panic("paresampler: peaks backend requires i_ss.rate >= o_ss.rate")
	}
	if r.workFormat != FormatS16NE && r.workFormat != FormatF32NE {
		panic("paresampler: peaks backend requires S16NE or F32NE work format")
	}
	return nil
}

func (b *peaksBackend) updateRates(r *Resampler) {
	b.reset(r)
}

func (b *peaksBackend) reset(r *Resampler) {
	b.iCounter = 0
	b.oCounter = 0
	for c := range b.maxI {
		b.maxI[c] = 0
	}
	for c := range b.maxF {
		b.maxF[c] = 0
	}
}

func (b *peaksBackend) close() {}

func (b *peaksBackend) resample(r *Resampler, in, out []byte, inFrames, outFrames int) (produced, consumed int) {
	oIndex := 0
	i := (b.oCounter * uint64(r.inRate)) / uint64(r.outRate)
	if i > b.iCounter {
		i -= b.iCounter
	} else {
		i = 0
	}

	var iEnd uint64
	switch {
	case r.workChannels == 1 && r.workFormat == FormatF32NE:
		s := f32View(in, inFrames)
		d := f32View(out, outFrames)
		for int(iEnd) < inFrames {
			iEnd = ((b.oCounter + 1) * uint64(r.inRate)) / uint64(r.outRate)
			if iEnd > b.iCounter {
				iEnd -= b.iCounter
			} else {
				iEnd = 0
			}

			for ; i < iEnd && int(i) < inFrames; i++ {
				n := float32(math.Abs(float64(s[i])))
				if n > b.maxF[0] {
					b.maxF[0] = n
				}
			}

			if i == iEnd {
				if oIndex < len(d) {
					d[oIndex] = b.maxF[0]
				}
				b.maxF[0] = 0
				oIndex++
				b.oCounter++
			}
		}

	case r.workFormat == FormatS16NE:
		s := s16View(in, inFrames*r.workChannels)
		d := s16View(out, outFrames*r.workChannels)
		for int(iEnd) < inFrames {
			iEnd = ((b.oCounter + 1) * uint64(r.inRate)) / uint64(r.outRate)
			if iEnd > b.iCounter {
				iEnd -= b.iCounter
			} else {
				iEnd = 0
			}

			for ; i < iEnd && int(i) < inFrames; i++ {
				base := int(i) * r.workChannels
				for c := 0; c < r.workChannels; c++ {
					n := s[base+c]
					if n < 0 {
						n = -n
					}
					if n > b.maxI[c] {
						b.maxI[c] = n
					}
				}
			}

			if i == iEnd {
				base := oIndex * r.workChannels
				for c := 0; c < r.workChannels; c++ {
					if base+c < len(d) {
						d[base+c] = b.maxI[c]
					}
					b.maxI[c] = 0
				}
				oIndex++
				b.oCounter++
			}
		}

	default:
		s := f32View(in, inFrames*r.workChannels)
		d := f32View(out, outFrames*r.workChannels)
		for int(iEnd) < inFrames {
			iEnd = ((b.oCounter + 1) * uint64(r.inRate)) / uint64(r.outRate)
			if iEnd > b.iCounter {
				iEnd -= b.iCounter
			} else {
				iEnd = 0
			}

			for ; i < iEnd && int(i) < inFrames; i++ {
				base := int(i) * r.workChannels
				for c := 0; c < r.workChannels; c++ {
					n := float32(math.Abs(float64(s[base+c])))
					if n > b.maxF[c] {
						b.maxF[c] = n
					}
				}
			}

			if i == iEnd {
				base := oIndex * r.workChannels
				for c := 0; c < r.workChannels; c++ {
					if base+c < len(d) {
						d[base+c] = b.maxF[c]
					}
					b.maxF[c] = 0
				}
				oIndex++
				b.oCounter++
			}
		}
	}

	b.iCounter += uint64(inFrames)
	for b.iCounter >= uint64(r.inRate) {
		b.iCounter -= uint64(r.inRate)
		b.oCounter -= uint64(r.outRate)
	}

	return oIndex, inFrames
}

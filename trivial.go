// trivial.go
package paresampler

// trivialBackend is a direct port of the original's trivial_resample: a
// nearest-neighbor resampler driven by a pair of rational counters
// (i_counter/o_counter) instead of floating point position tracking, so
// it never accumulates drift across arbitrarily long streams. Distinct
// from the teacher's zoh.go, which holds the last input sample while
// tracking a fractional floating-point input position, under the
// SRC_ZERO_ORDER_HOLD method name.
type trivialBackend struct {
	iCounter uint64
	oCounter uint64
}

func newTrivialBackend() *trivialBackend {
	return &trivialBackend{}
}

func (b *trivialBackend) init(r *Resampler) error {
	return nil
}

func (b *trivialBackend) updateRates(r *Resampler) {
	b.reset(r)
}

func (b *trivialBackend) reset(r *Resampler) {
	b.iCounter = 0
	b.oCounter = 0
}

func (b *trivialBackend) close() {}

func (b *trivialBackend) resample(r *Resampler, in, out []byte, inFrames, outFrames int) (produced, consumed int) {
	fz := r.workSampleSize * r.workChannels

	oIndex := 0
	for ; ; oIndex++ {
		iIndex := (b.oCounter * uint64(r.inRate)) / uint64(r.outRate)
		if iIndex > b.iCounter {
			iIndex -= b.iCounter
		} else {
			iIndex = 0
		}

		if int(iIndex) >= inFrames || oIndex >= outFrames {
			break
		}

		copy(out[oIndex*fz:(oIndex+1)*fz], in[int(iIndex)*fz:int(iIndex)*fz+fz])
		b.oCounter++
	}

	b.iCounter += uint64(inFrames)

	for b.iCounter >= uint64(r.inRate) {
		b.iCounter -= uint64(r.inRate)
		b.oCounter -= uint64(r.outRate)
	}

	return oIndex, inFrames
}

// resampler.go
package paresampler

import (
	"fmt"
)

// StreamSpec describes one endpoint (input or output) of a Resampler:
// its sample format, rate, channel count and channel-position map. Map
// may be nil, in which case DefaultChannelMap(Channels) is used, the Go
// equivalent of pa_channel_map_init_auto falling back to
// PA_CHANNEL_MAP_DEFAULT.
type StreamSpec struct {
	Rate     uint32
	Format   SampleFormat
	Channels int
	Map      ChannelMap
}

// DefaultChannelMap returns the conventional channel layout for a given
// channel count (mono, stereo, quad, 5.1, ...). Channel counts beyond
// the known layouts get sequential front-left/front-right/front-center
// filler positions, which is a reasonable fallback but not a claim about
// any specific real layout.
func DefaultChannelMap(channels int) ChannelMap {
	switch channels {
	case 1:
		return ChannelMap{PositionMono}
	case 2:
		return ChannelMap{PositionFrontLeft, PositionFrontRight}
	case 3:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionLFE}
	case 4:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionRearLeft, PositionRearRight}
	case 5:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionRearLeft, PositionRearRight}
	case 6:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearLeft, PositionRearRight}
	case 8:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearLeft, PositionRearRight, PositionSideLeft, PositionSideRight}
	default:
		m := make(ChannelMap, channels)
		for i := range m {
			switch i % 3 {
			case 0:
				m[i] = PositionFrontLeft
			case 1:
				m[i] = PositionFrontRight
			case 2:
				m[i] = PositionFrontCenter
			}
		}
		return m
	}
}

// Resampler is the pipeline orchestrator (component H): it owns the
// channel-remix matrix, the format-conversion thunks, the four
// intermediate buffers and the selected backend, and drives one call's
// worth of audio through convert-to-work -> (remap, resample in
// data-flow order) -> convert-from-work.
type Resampler struct {
	pool *Pool

	method Method
	flags  Flags

	inRate, outRate           uint32
	inChannels, outChannels   int
	inFormat, outFormat       SampleFormat
	inMap, outMap             ChannelMap
	inFrameSize, outFrameSize int

	workFormat     SampleFormat
	workSampleSize int
	workChannels   int

	toWorkFunc   ConvertFunc
	fromWorkFunc ConvertFunc

	matrix      *Matrix
	mapRequired bool

	toWorkBuf   *scratchBuffer
	remapBuf    *scratchBuffer
	resampleBuf *scratchBuffer
	fromWorkBuf *scratchBuffer

	hasLeftover   bool
	leftoverBytes int // valid leading bytes of remapBuf when hasLeftover is true

	backend backend
}

// NewResampler constructs a Resampler. Construction errors (invalid
// specs, unsupported method, backend init failure) return (nil, error);
// per spec.md §7's configuration-error contract and the original's
// goto-fail symmetry, there is never a partially built instance
// returned on an error path.
func NewResampler(pool *Pool, in, out StreamSpec, method Method, flags Flags) (*Resampler, error) {
	if pool == nil {
		panic("paresampler: nil pool")
	}
	if in.Rate == 0 || out.Rate == 0 {
		panic("paresampler: rate must be positive")
	}
	if in.Channels < 1 || in.Channels > maxChannels || out.Channels < 1 || out.Channels > maxChannels {
		panic("paresampler: channel count out of range")
	}
	if method < 0 || method >= methodMax {
		panic("paresampler: method out of range")
	}

	r := &Resampler{pool: pool}

	r.method = fixMethod(flags, method, in.Rate, out.Rate)
	r.flags = flags

	r.inRate, r.outRate = in.Rate, out.Rate
	r.inFormat, r.outFormat = in.Format, out.Format
	r.inChannels, r.outChannels = in.Channels, out.Channels

	r.inMap = in.Map
	if r.inMap == nil {
		r.inMap = DefaultChannelMap(in.Channels)
	}
	r.outMap = out.Map
	if r.outMap == nil {
		r.outMap = DefaultChannelMap(out.Channels)
	}

	r.inFrameSize = BytesPerSample(in.Format) * in.Channels
	r.outFrameSize = BytesPerSample(out.Format) * out.Channels

	rf := remapFlags{
		noRemap: flags&FlagNoRemap != 0,
		noRemix: flags&FlagNoRemix != 0,
		noLFE:   flags&FlagNoLFE != 0,
	}
	m, required := calcMapTable(r.inMap, r.outMap, rf)
	r.matrix = m
	r.mapRequired = required

	r.workFormat = chooseWorkFormat(r.method, in.Format, out.Format, r.mapRequired)
	r.workSampleSize = BytesPerSample(r.workFormat)

	if in.Format != r.workFormat {
		r.toWorkFunc = convertToWork(in.Format, r.workFormat)
		if r.toWorkFunc == nil {
			return nil, fmt.Errorf("paresampler: no conversion from %v to work format %v", in.Format, r.workFormat)
		}
	}
	if out.Format != r.workFormat {
		r.fromWorkFunc = convertFromWork(r.workFormat, out.Format)
		if r.fromWorkFunc == nil {
			return nil, fmt.Errorf("paresampler: no conversion from work format %v to %v", r.workFormat, out.Format)
		}
	}

	if out.Channels <= in.Channels {
		r.workChannels = out.Channels
	} else {
		r.workChannels = in.Channels
	}

	r.toWorkBuf = newScratchBuffer(pool, r.workSampleSize)
	r.remapBuf = newScratchBuffer(pool, r.workSampleSize)
	r.resampleBuf = newScratchBuffer(pool, r.workSampleSize)
	r.fromWorkBuf = newScratchBuffer(pool, BytesPerSample(out.Format))

	be, err := newBackend(r.method)
	if err != nil {
		return nil, err
	}
	r.backend = be
	if err := r.backend.init(r); err != nil {
		return nil, err
	}

	return r, nil
}

// newBackend is the enum -> backend constructor table (§4.4, §9's
// "registry built from statically-known entries").
func newBackend(method Method) (backend, error) {
	switch {
	case method == MethodCopy:
		return newCopyBackend(), nil
	case method == MethodTrivial:
		return newTrivialBackend(), nil
	case method == MethodPeaks:
		return newPeaksBackend(), nil
	case method >= MethodSrcSincBestQuality && method <= MethodSrcLinear:
		return newSrcBackendFor(method)
	default:
		return nil, fmt.Errorf("paresampler: method %s has no backend implementation in this build", method)
	}
}

// foldDown reports whether the data-flow order for this instance remaps
// before resampling (out_channels <= in_channels). Open question 4 in
// spec.md §9 ties leftover validity to this branch: only here is a
// leftover in output-channel layout meaningful to feed back into the
// resample stage on the next call.
func (r *Resampler) foldDown() bool {
	return r.outChannels <= r.inChannels
}

// saveLeftover stores unconsumed input frames (already in the
// resample-stage's input layout) for the next Run call. Per spec.md §9
// open question 4, this is only structurally valid when remap precedes
// resample (the fold-down branch): there, the resample backend's input
// is already in output-channel layout, matching what remapBuf holds.
// In the fan-out branch the resample backend's input is still in
// input-channel layout, which cannot be spliced into an output-layout
// buffer; such leftovers are intentionally dropped, per the spec's
// instruction to "treat leftover as produced only when remap precedes
// resample" rather than silently fixing the mismatch.
func (r *Resampler) saveLeftover(data []byte, frames int) {
	if !r.foldDown() || frames <= 0 {
		return
	}
	nBytes := frames * r.workSampleSize * r.workChannels
	if err := r.remapBuf.resize(frames * r.workChannels); err != nil {
		panic(fmt.Sprintf("paresampler: leftover allocation failed: %v", err))
	}
	copy(r.remapBuf.buf.Bytes(), data[:nBytes])
	r.leftoverBytes = nBytes
	r.hasLeftover = true
}

// convertToWorkFormat is convert_to_work_format: identity when the
// input is already in work format.
func (r *Resampler) convertToWorkFormat(in []byte, inFrames int) ([]byte, int) {
	if r.toWorkFunc == nil || len(in) == 0 {
		return in, inFrames
	}
	nSamples := inFrames * r.inChannels
	if err := r.toWorkBuf.resize(nSamples); err != nil {
		panic(fmt.Sprintf("paresampler: to-work buffer resize failed: %v", err))
	}
	out := r.toWorkBuf.buf.Bytes()
	r.toWorkFunc(nSamples, in, out)
	return out, inFrames
}

// remapChannels is remap_channels: mixes channels and prepends any
// stored leftover (already in output layout) ahead of the freshly
// remapped frames.
func (r *Resampler) remapChannels(in []byte, inFrames int) ([]byte, int) {
	haveLeftover := r.hasLeftover
	r.hasLeftover = false

	if !haveLeftover && (!r.mapRequired || len(in) == 0) {
		return in, inFrames
	}
	if len(in) == 0 {
		return r.remapBuf.buf.Bytes()[:r.leftoverBytes], r.leftoverBytes / (r.workSampleSize * r.outChannels)
	}

	leftoverBytes := 0
	outFrames := inFrames
	if haveLeftover {
		leftoverBytes = r.leftoverBytes
		outFrames += leftoverBytes / (r.workSampleSize * r.outChannels)
	}

	totalBytes := outFrames * r.outChannels * r.workSampleSize
	if err := r.remapBuf.resizePreservingPrefix(outFrames*r.outChannels, leftoverBytes); err != nil {
		panic(fmt.Sprintf("paresampler: remap buffer resize failed: %v", err))
	}

	dst := r.remapBuf.buf.Bytes()[leftoverBytes:totalBytes]
	if r.mapRequired {
		doRemap(r.matrix, r.workFormat, dst, in, inFrames)
	} else {
		copy(dst, in)
	}

	return r.remapBuf.buf.Bytes()[:totalBytes], outFrames
}

// resampleStage is resample(): runs the backend's resample method when
// present (copyBackend has none, matching implementation.resample ==
// NULL for the original's copy_impl).
func (r *Resampler) resampleStage(in []byte, inFrames int) ([]byte, int) {
	rb, ok := r.backend.(resamplingBackend)
	if !ok || len(in) == 0 {
		return in, inFrames
	}

	outFrames := (inFrames*int(r.outRate))/int(r.inRate) + extraFrames
	if err := r.resampleBuf.resize(outFrames * r.workChannels); err != nil {
		panic(fmt.Sprintf("paresampler: resample buffer resize failed: %v", err))
	}
	out := r.resampleBuf.buf.Bytes()

	produced, _ := rb.resample(r, in, out, inFrames, outFrames)
	total := produced * r.workChannels * r.workSampleSize
	return r.resampleBuf.buf.Bytes()[:total], produced
}

// convertFromWorkFormat is convert_from_work_format: identity when the
// output is already in work format.
func (r *Resampler) convertFromWorkFormat(in []byte, frames int) []byte {
	if r.fromWorkFunc == nil || len(in) == 0 {
		return in
	}
	nSamples := frames * r.outChannels
	if err := r.fromWorkBuf.resize(nSamples); err != nil {
		panic(fmt.Sprintf("paresampler: from-work buffer resize failed: %v", err))
	}
	out := r.fromWorkBuf.buf.Bytes()
	r.fromWorkFunc(nSamples, in, out)
	return out
}

// Run consumes one chunk of input (a multiple of the input frame size)
// and returns the corresponding output bytes. The returned slice is
// only valid until the next Run call on this Resampler.
func (r *Resampler) Run(in []byte) []byte {
	if len(in) == 0 {
		panic("paresampler: Run requires a non-empty input chunk")
	}
	if len(in)%r.inFrameSize != 0 {
		panic("paresampler: Run input length is not a multiple of the input frame size")
	}

	inFrames := len(in) / r.inFrameSize

	buf, frames := r.convertToWorkFormat(in, inFrames)

	if r.foldDown() {
		buf, frames = r.remapChannels(buf, frames)
		buf, frames = r.resampleStage(buf, frames)
	} else {
		buf, frames = r.resampleStage(buf, frames)
		buf, frames = r.remapChannels(buf, frames)
	}

	if len(buf) == 0 {
		return nil
	}

	return r.convertFromWorkFormat(buf, frames)
}

// Request returns the smallest input byte length such that Run on it
// yields at least outLength bytes of output. Leftover frames already
// buffered are deliberately not counted, so that a caller repeatedly
// calling request(small) -> run -> 0 bytes cannot deadlock: the
// leftover only grows, and growth is bounded by the backend's own
// minimum processing unit.
func (r *Resampler) Request(outLength int) int {
	if outLength <= 0 {
		return 0
	}
	outFrames := ceilDiv(outLength, r.outFrameSize)
	inFrames := ceilDiv(outFrames*int(r.inRate), int(r.outRate))
	return inFrames * r.inFrameSize
}

// Result returns an upper bound on the output byte length Run would
// produce for inLength bytes of input, including any leftover frames
// already sitting in the remap buffer.
func (r *Resampler) Result(inLength int) int {
	inFrames := ceilDiv(inLength, r.inFrameSize)
	outFrames := ceilDiv(inFrames*int(r.outRate), int(r.inRate))
	if r.hasLeftover {
		outFrames += r.leftoverBytes / (r.workSampleSize * r.outChannels)
	}
	return outFrames * r.outFrameSize
}

// MaxBlockSize returns the largest input byte length whose worst-case
// expansion still fits inside the pool's block size, after reserving
// EXTRA_FRAMES of backend overshoot and any already-buffered leftover.
// Spec.md §9 open question 3 flags the original's EXTRA_FRAMES/byte
// unit mismatch; this keeps everything in byte units throughout to
// avoid that bug.
func (r *Resampler) MaxBlockSize() int {
	maxBytesPerFrame := maxInt(BytesPerSample(r.inFormat)*r.inChannels, maxInt(BytesPerSample(r.outFormat)*r.outChannels, r.workSampleSize*maxInt(r.inChannels, r.outChannels)))

	ratio := float64(r.outRate) / float64(r.inRate)
	if ratio < 1.0 {
		ratio = 1.0
	}

	budget := r.pool.BlockSizeMax() - extraFrames*maxBytesPerFrame - r.leftoverBytes
	if budget <= 0 {
		return 0
	}

	inFrames := int(float64(budget) / ratio / float64(maxBytesPerFrame))
	if inFrames <= 0 {
		return 0
	}
	return inFrames * r.inFrameSize
}

// SetInputRate changes the input rate and, if it actually changed,
// notifies the backend via update_rates.
func (r *Resampler) SetInputRate(rate uint32) {
	if rate == r.inRate {
		return
	}
	r.inRate = rate
	r.backend.updateRates(r)
}

// SetOutputRate is symmetric to SetInputRate.
func (r *Resampler) SetOutputRate(rate uint32) {
	if rate == r.outRate {
		return
	}
	r.outRate = rate
	r.backend.updateRates(r)
}

// Reset flushes backend filter memory and drops any leftover.
func (r *Resampler) Reset() {
	r.backend.reset(r)
	r.hasLeftover = false
	r.leftoverBytes = 0
}

// Close releases the backend's private state. The four intermediate
// buffers' pool blocks become eligible for GC once the Resampler itself
// is no longer referenced; there is no separate buffer-teardown step
// since Go's allocator is garbage collected, unlike the original's
// explicit pa_memblock_unref calls.
func (r *Resampler) Close() {
	r.backend.close()
}

// Method reports the (already fixed-up) method this instance runs.
func (r *Resampler) Method() Method { return r.method }

// MapRequired reports whether channel remixing is active.
func (r *Resampler) MapRequired() bool { return r.mapRequired }

// Matrix exposes the computed remix matrix (nil when MapRequired is
// false), primarily for debugging and tests.
func (r *Resampler) Matrix() *Matrix { return r.matrix }

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

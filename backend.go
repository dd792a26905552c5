// backend.go
package paresampler

// EXTRA_FRAMES was a compile time define in the original; kept as a
// named constant since the output-buffer sizing formula in resample()
// depends on it directly.
const extraFrames = 128

// backend is the minimal vtable every resampling algorithm implements,
// the Go shape of pa_resampler_implementation from §6: init runs once
// at construction, updateRates/reset run on rate changes and stream
// resets, and close releases any backend-private state. This replaces
// the original's struct of function pointers with a plain interface,
// per the Go redesign note in spec.md §9 ("tagged-enum/interface-based
// vtables instead of C function-pointer tables").
type backend interface {
	init(r *Resampler) error
	updateRates(r *Resampler)
	reset(r *Resampler)
	close()
}

// resamplingBackend is implemented by every backend except 'copy',
// which has no resample step at all (the original leaves
// implementation.resample nil for copy_impl, and resample() in
// resampler.c checks that pointer before calling through it). The
// orchestrator does the equivalent check with a type assertion.
type resamplingBackend interface {
	backend
	// resample consumes up to inFrames frames from in (already in work
	// format/channel count) and writes produced frames (<= cap(out)
	// frames) into out, returning the number of frames produced. It may
	// consume fewer than inFrames frames; the remainder is the caller's
	// responsibility to carry over (srcbackend.go's libsamplerate path
	// does this via save-leftover, mirrored in resampler.go).
	resample(r *Resampler, in, out []byte, inFrames, outFrames int) (produced, consumed int)
}

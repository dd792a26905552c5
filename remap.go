// remap.go
package paresampler

// doRemap applies the channel remix matrix to nFrames frames of
// interleaved work-format samples, the Go stand-in for the original's
// pa_remap_t.do_remap function pointer (installed by pa_init_remap in
// the C source, dispatched there to hand-specialized SIMD routines for
// common channel-count pairs). This is a plain scalar implementation:
// the spec places "a SIMD-optimized variant of the channel-remix inner
// loop" out of scope (§1 Non-goals), so one portable path covers every
// matrix shape.
func doRemap(m *Matrix, workFormat SampleFormat, dst, src []byte, nFrames int) {
	switch workFormat {
	case FormatS16NE:
		remapS16(m, dst, src, nFrames)
	default:
		remapF32(m, dst, src, nFrames)
	}
}

func remapF32(m *Matrix, dst, src []byte, nFrames int) {
	in := f32View(src, nFrames*m.InChannels)
	out := f32View(dst, nFrames*m.OutChannels)

	for fr := 0; fr < nFrames; fr++ {
		inBase := fr * m.InChannels
		outBase := fr * m.OutChannels
		for oc := 0; oc < m.OutChannels; oc++ {
			var acc float32
			row := m.Float[oc]
			for ic := 0; ic < m.InChannels; ic++ {
				acc += row[ic] * in[inBase+ic]
			}
			out[outBase+oc] = acc
		}
	}
}

func remapS16(m *Matrix, dst, src []byte, nFrames int) {
	in := s16View(src, nFrames*m.InChannels)
	out := s16View(dst, nFrames*m.OutChannels)

	for fr := 0; fr < nFrames; fr++ {
		inBase := fr * m.InChannels
		outBase := fr * m.OutChannels
		for oc := 0; oc < m.OutChannels; oc++ {
			var acc int64
			row := m.Fixed[oc]
			for ic := 0; ic < m.InChannels; ic++ {
				acc += int64(row[ic]) * int64(in[inBase+ic])
			}
			v := acc >> 16
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			out[outBase+oc] = int16(v)
		}
	}
}

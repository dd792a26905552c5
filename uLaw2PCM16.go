package paresampler

import "fmt"

// --- Constants ---
const (
	ulawInputSampleRate  = 8000
	ulawOutputSampleRate = 16000
)

// G.711 u-Law decoder table, reused by format.go's ulawToS16/ulawToF32
// conversion functions.
var ulawExpLut = [8]int16{0, 132, 396, 924, 1980, 4092, 8316, 16764}

// ulawToLinearInt16Go decodes a single u-law byte to 16-bit linear PCM.
func ulawToLinearInt16Go(ulawByte byte) int16 {
	ulaw := ^ulawByte

	sign := ulaw & 0x80
	exponent := (ulaw >> 4) & 0x07
	mantissa := ulaw & 0x0F

	linearVal := ulawExpLut[exponent] + (int16(mantissa) << (exponent + 3))

	if sign == 0 {
		linearVal = -linearVal
	}
	return linearVal
}

// linearToUlawGo encodes a 16-bit linear PCM sample to a u-law byte,
// reused by format.go's s16ToUlaw/f32ToUlaw conversion functions.
func linearToUlawGo(pcmVal int16) byte {
	const (
		bias = 0x84
		clip = 32635
	)
	var uVal byte
	var sign int
	var pcmMag int

	if pcmVal < 0 {
		sign = 0
		pcmMag = int(-pcmVal)
	} else {
		sign = 0x80
		pcmMag = int(pcmVal)
	}

	if pcmMag > clip {
		pcmMag = clip
	}
	pcmMag += bias

	exponent := 7
	for expMask := 0x4000; (pcmMag&expMask) == 0 && exponent > 0; exponent-- {
		expMask >>= 1
	}

	mantissa := (pcmMag >> (exponent + 3)) & 0x0F
	uVal = byte(sign | (exponent << 4) | mantissa)

	return ^uVal
}

// ConvertUlawToPCM converts mono u-Law bytes at 8kHz into 16-bit
// little-endian PCM resampled to 16kHz, via a one-shot Resampler running
// the given backend method.
func ConvertUlawToPCM(inputUlaw []byte, quality ConverterType) ([]byte, error) {
	if len(inputUlaw) == 0 {
		return []byte{}, nil
	}

	method, ok := methodForConverterType(quality)
	if !ok {
		return nil, fmt.Errorf("paresampler: converter type %d has no resampling method", quality)
	}

	pool := NewPool(mixPoolSize(len(inputUlaw) * 4))
	in := StreamSpec{Rate: ulawInputSampleRate, Format: FormatULaw, Channels: 1}
	out := StreamSpec{Rate: ulawOutputSampleRate, Format: FormatS16NE, Channels: 1}

	resamp, err := NewResampler(pool, in, out, method, 0)
	if err != nil {
		return nil, fmt.Errorf("building u-law resampler: %w", err)
	}
	defer resamp.Close()

	return resamp.Run(inputUlaw), nil
}

// methodForConverterType is the inverse of converterTypeForMethod, used by
// callers (like ConvertUlawToPCM) that still think in terms of the
// teacher's ConverterType enum rather than Method.
func methodForConverterType(ct ConverterType) (Method, bool) {
	m := Method(ct)
	if m < MethodSrcSincBestQuality || m > MethodSrcLinear {
		return 0, false
	}
	return m, true
}

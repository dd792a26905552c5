// method.go
package paresampler

import "fmt"

// Method names a resampling algorithm, mirroring pa_resample_method_t's
// ordinals exactly so that the teacher's ConverterType (which already
// matches PA_RESAMPLER_SRC_* 0-4) plugs straight into MethodSrcSincBest
// through MethodSrcLinear without translation.
type Method int

const (
	MethodSrcSincBestQuality Method = iota
	MethodSrcSincMediumQuality
	MethodSrcSincFastest
	MethodSrcZeroOrderHold
	MethodSrcLinear
	MethodTrivial
	MethodSpeexFloatBase // speex-float-0 .. speex-float-10
	methodSpeexFloat1
	methodSpeexFloat2
	methodSpeexFloat3
	methodSpeexFloat4
	methodSpeexFloat5
	methodSpeexFloat6
	methodSpeexFloat7
	methodSpeexFloat8
	methodSpeexFloat9
	MethodSpeexFloatMax // speex-float-10
	MethodSpeexFixedBase
	methodSpeexFixed1
	methodSpeexFixed2
	methodSpeexFixed3
	methodSpeexFixed4
	methodSpeexFixed5
	methodSpeexFixed6
	methodSpeexFixed7
	methodSpeexFixed8
	methodSpeexFixed9
	MethodSpeexFixedMax // speex-fixed-10
	MethodAuto
	MethodCopy
	MethodPeaks
	methodMax
)

// Flag bits controlling remap/remix/LFE/variable-rate behavior (§6).
type Flags int

const (
	FlagVariableRate Flags = 1 << iota
	FlagNoRemap
	FlagNoRemix
	FlagNoLFE
)

var methodNames = [methodMax]string{
	MethodSrcSincBestQuality:   "src-sinc-best-quality",
	MethodSrcSincMediumQuality: "src-sinc-medium-quality",
	MethodSrcSincFastest:       "src-sinc-fastest",
	MethodSrcZeroOrderHold:     "src-zero-order-hold",
	MethodSrcLinear:            "src-linear",
	MethodTrivial:              "trivial",
	MethodSpeexFloatBase:       "speex-float-0",
	methodSpeexFloat1:          "speex-float-1",
	methodSpeexFloat2:          "speex-float-2",
	methodSpeexFloat3:          "speex-float-3",
	methodSpeexFloat4:          "speex-float-4",
	methodSpeexFloat5:          "speex-float-5",
	methodSpeexFloat6:          "speex-float-6",
	methodSpeexFloat7:          "speex-float-7",
	methodSpeexFloat8:          "speex-float-8",
	methodSpeexFloat9:          "speex-float-9",
	MethodSpeexFloatMax:        "speex-float-10",
	MethodSpeexFixedBase:       "speex-fixed-0",
	methodSpeexFixed1:          "speex-fixed-1",
	methodSpeexFixed2:          "speex-fixed-2",
	methodSpeexFixed3:          "speex-fixed-3",
	methodSpeexFixed4:          "speex-fixed-4",
	methodSpeexFixed5:          "speex-fixed-5",
	methodSpeexFixed6:          "speex-fixed-6",
	methodSpeexFixed7:          "speex-fixed-7",
	methodSpeexFixed8:          "speex-fixed-8",
	methodSpeexFixed9:          "speex-fixed-9",
	MethodSpeexFixedMax:        "speex-fixed-10",
	MethodAuto:                 "auto",
	MethodCopy:                 "copy",
	MethodPeaks:                "peaks",
}

// MethodToString returns the stable method name, or "" if m is out of
// range (mirroring pa_resample_method_to_string returning NULL).
func MethodToString(m Method) string {
	if m < 0 || m >= methodMax {
		return ""
	}
	return methodNames[m]
}

// MethodFromString parses a method name, including the un-suffixed
// "speex-fixed"/"speex-float" aliases (which pa_parse_resample_method
// maps to quality level 1), returning (-1, false) for anything
// unrecognized.
func MethodFromString(s string) (Method, bool) {
	for m, name := range methodNames {
		if name == s {
			return Method(m), true
		}
	}
	if s == "speex-fixed" {
		return MethodSpeexFixedBase + 1, true
	}
	if s == "speex-float" {
		return MethodSpeexFloatBase + 1, true
	}
	return -1, false
}

// isSpeexFixed reports whether m is any speex-fixed-N method.
func isSpeexFixed(m Method) bool {
	return m >= MethodSpeexFixedBase && m <= MethodSpeexFixedMax
}

// isSpeexFloat reports whether m is any speex-float-N method.
func isSpeexFloat(m Method) bool {
	return m >= MethodSpeexFloatBase && m <= MethodSpeexFloatMax
}

// methodSupported mirrors pa_resample_method_supported: every src-*
// method is backed by the embedded teacher converter, so those are
// always supported; speex is never compiled in (no Go binding in the
// retrieved dependency set, see config.go).
func methodSupported(m Method) bool {
	if m < 0 || m >= methodMax {
		return false
	}
	if isSpeexFloat(m) {
		return speexFloatCompiledIn
	}
	if isSpeexFixed(m) {
		return speexFixedCompiledIn
	}
	return true
}

// fixMethod implements pa_resampler_fix_method's fallback chain: force
// 'copy' for a fixed equal-rate stream, fall back to 'auto' for an
// unsupported/uncompiled method or an incompatible flag+method
// combination, and resolve 'auto' itself to the best available backend.
func fixMethod(flags Flags, method Method, rateA, rateB uint32) Method {
	if flags&FlagVariableRate == 0 && rateA == rateB {
		method = MethodCopy
	}

	if !methodSupported(method) {
		method = MethodAuto
	}

	switch method {
	case MethodCopy:
		if flags&FlagVariableRate != 0 {
			method = MethodAuto
		}
	case MethodPeaks:
		// Peaks only downsamples; revert to auto when upsampling.
		if rateA < rateB {
			method = MethodAuto
		}
	}

	if method == MethodAuto {
		if speexFloatCompiledIn {
			method = MethodSpeexFloatBase + 1
		} else {
			method = MethodTrivial
		}
	}

	return method
}

func (m Method) String() string {
	if s := MethodToString(m); s != "" {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

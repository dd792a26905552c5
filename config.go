//
// Copyright (c) 2025, Antonio Chirizzi <antonio.chirizzi@gmail.com>
// All rights reserved.
//
// This code is released under 3-clause BSD license. Please see the
// file LICENSE
//

package paresampler

// Constants derived from config.h defines.

const (
	// Enabled converters (based on 'yes' defines)
	enableSincBestConverter   = true // ENABLE_SINC_BEST_CONVERTER yes
	enableSincFastConverter   = true // ENABLE_SINC_FAST_CONVERTER yes
	enableSincMediumConverter = true // ENABLE_SINC_MEDIUM_CONVERTER yes

	packageVersion = "0.2.2"

	maxChannels = 128 // Hardcoded in src_sinc.c, seems reasonable default if not config specific

	// speexFixedCompiledIn/speexFloatCompiledIn stand in for the
	// original's #ifdef HAVE_SPEEX build graph. No Go speex binding is
	// available, so both are false; pa_resampler_fix_method's own
	// "library not compiled in -> auto" rule (see method.go) handles the
	// fallback, exactly as it would on a PulseAudio build without speex.
	speexFixedCompiledIn = false
	speexFloatCompiledIn = false
)

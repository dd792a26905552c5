//
// Copyright (c) 2025, Antonio Chirizzi <antonio.chirizzi@gmail.com>
// All rights reserved.
//
// This code is released under 3-clause BSD license. Please see the
// file LICENSE
//

package paresampler

import (
	"encoding/binary"
	"fmt"
)

// --- Constants ---
const (
	mixInput24kHzSampleRate  = 24000
	mixInput16kHzSampleRate  = 16000
	mixOutputMuLawSampleRate = 8000
	mixBytesPerInputFrame    = 2 // S16LE mono
	mixFactorDefault         = 0.6
)

// bytesToS16LEGo reads one little-endian S16 sample at byteIndex.
func bytesToS16LEGo(buffer []byte, byteIndex int) (int16, error) {
	if byteIndex < 0 || byteIndex+1 >= len(buffer) {
		return 0, fmt.Errorf("bytesToS16LEGo read out of bounds: index %d for buffer size %d", byteIndex, len(buffer))
	}
	return int16(binary.LittleEndian.Uint16(buffer[byteIndex:])), nil
}

// mixPoolSize picks a pool block ceiling generous enough for one Run call
// over the given input byte length: the four intermediate buffers plus the
// work-format expansion from S16 to F32 and back, with headroom.
func mixPoolSize(inputBytes int) int {
	size := inputBytes*8 + 1<<16
	if size < defaultBlockSizeMax {
		size = defaultBlockSizeMax
	}
	return size
}

// MixResampleUlaw24to8 mixes two S16LE 24kHz mono PCM streams, resamples to
// 8kHz, and encodes the result as u-Law. It updates lastSample2MixedPos with
// the index of the last sample used from pcmStream2 + 1 (wrapping if
// necessary).
func MixResampleUlaw24to8(
	pcmStream1, pcmStream2 []byte,
	lastSample2MixedPos *int,
	mixFactor float32,
) ([]byte, error) {
	return mixResampleUlaw(pcmStream1, pcmStream2, lastSample2MixedPos, mixInput24kHzSampleRate, mixFactor)
}

// MixResampleUlaw16to8 is the 16kHz counterpart of MixResampleUlaw24to8.
func MixResampleUlaw16to8(
	pcmStream1, pcmStream2 []byte,
	lastSample2MixedPos *int,
	mixFactor float32,
) ([]byte, error) {
	return mixResampleUlaw(pcmStream1, pcmStream2, lastSample2MixedPos, mixInput16kHzSampleRate, mixFactor)
}

// MixResampleUlaw24to8DefaultFactor mixes at the default mix factor.
func MixResampleUlaw24to8DefaultFactor(
	pcmStream1, pcmStream2 []byte,
	lastSample2MixedPos *int,
) ([]byte, error) {
	return MixResampleUlaw24to8(pcmStream1, pcmStream2, lastSample2MixedPos, mixFactorDefault)
}

// MixResampleUlaw16to8DefaultFactor mixes at the default mix factor.
func MixResampleUlaw16to8DefaultFactor(
	pcmStream1, pcmStream2 []byte,
	lastSample2MixedPos *int,
) ([]byte, error) {
	return MixResampleUlaw16to8(pcmStream1, pcmStream2, lastSample2MixedPos, mixFactorDefault)
}

// mixResampleUlaw mixes two mono S16LE streams sampled at inRate, then
// drives the mixed buffer through a one-shot Resampler down to 8kHz u-Law.
// Mixing happens in the sample domain, ahead of the resampler pipeline,
// exactly the way the original standalone mixer fed libsamplerate directly;
// the difference from the teacher is that everything past the mix step
// (format conversion to float, resampling, u-Law encode) is now the
// orchestrator's job instead of hand-rolled loops in this file.
func mixResampleUlaw(
	pcmStream1, pcmStream2 []byte,
	lastSample2MixedPos *int,
	inRate uint32,
	mixFactor float32,
) ([]byte, error) {
	if len(pcmStream1)%mixBytesPerInputFrame != 0 {
		return nil, fmt.Errorf("input stream 1 size (%d) not multiple of frame size (%d)", len(pcmStream1), mixBytesPerInputFrame)
	}
	if len(pcmStream2)%mixBytesPerInputFrame != 0 {
		return nil, fmt.Errorf("input stream 2 size (%d) not multiple of frame size (%d)", len(pcmStream2), mixBytesPerInputFrame)
	}
	if lastSample2MixedPos == nil {
		return nil, fmt.Errorf("lastSample2MixedPos pointer must not be nil")
	}

	frames1 := len(pcmStream1) / mixBytesPerInputFrame
	frames2 := len(pcmStream2) / mixBytesPerInputFrame
	totalInputFrames := frames1

	if totalInputFrames == 0 {
		return []byte{}, nil
	}

	startPos2 := *lastSample2MixedPos + 1
	if frames2 > 0 {
		if startPos2 < 0 || startPos2 >= frames2 {
			startPos2 = 0
		}
	} else {
		startPos2 = 0
	}

	mixed := make([]byte, totalInputFrames*mixBytesPerInputFrame)
	i2 := startPos2
	for i1 := 0; i1 < totalInputFrames; i1++ {
		s16_1, err := bytesToS16LEGo(pcmStream1, i1*mixBytesPerInputFrame)
		if err != nil {
			return nil, fmt.Errorf("error reading stream 1 at frame %d: %w", i1, err)
		}

		var s16_2 int16
		if frames2 > 0 {
			s16_2, err = bytesToS16LEGo(pcmStream2, i2*mixBytesPerInputFrame)
			if err != nil {
				return nil, fmt.Errorf("error reading stream 2 at frame %d: %w", i2, err)
			}
		}

		mixedSample := float32(s16_1)*mixFactor + float32(s16_2)*mixFactor
		mixed[i1*2], mixed[i1*2+1] = encodeS16LE(clampToS16(mixedSample))

		if frames2 > 0 {
			i2++
			if i2 >= frames2 {
				i2 = 0
			}
		}
	}
	*lastSample2MixedPos = i2

	pool := NewPool(mixPoolSize(len(mixed)))
	in := StreamSpec{Rate: inRate, Format: FormatS16NE, Channels: 1}
	out := StreamSpec{Rate: mixOutputMuLawSampleRate, Format: FormatULaw, Channels: 1}

	resamp, err := NewResampler(pool, in, out, MethodSrcSincBestQuality, 0)
	if err != nil {
		return nil, fmt.Errorf("building mixer resampler: %w", err)
	}
	defer resamp.Close()

	return resamp.Run(mixed), nil
}

// Resample24kHzTo16kHz resamples a mono S16LE 24kHz PCM stream to 16kHz
// S16LE PCM using the same orchestrator as the mixer above, with the
// sinc-best-quality backend.
func Resample24kHzTo16kHz(pcmStream24kHz []byte) ([]byte, error) {
	if len(pcmStream24kHz)%mixBytesPerInputFrame != 0 {
		return nil, fmt.Errorf("input stream size (%d) not multiple of frame size (%d)", len(pcmStream24kHz), mixBytesPerInputFrame)
	}
	if len(pcmStream24kHz) == 0 {
		return []byte{}, nil
	}

	pool := NewPool(mixPoolSize(len(pcmStream24kHz)))
	in := StreamSpec{Rate: mixInput24kHzSampleRate, Format: FormatS16NE, Channels: 1}
	out := StreamSpec{Rate: mixInput16kHzSampleRate, Format: FormatS16NE, Channels: 1}

	resamp, err := NewResampler(pool, in, out, MethodSrcSincBestQuality, 0)
	if err != nil {
		return nil, fmt.Errorf("building resampler: %w", err)
	}
	defer resamp.Close()

	return resamp.Run(pcmStream24kHz), nil
}

func clampToS16(v float32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func encodeS16LE(v int16) (byte, byte) {
	u := uint16(v)
	return byte(u), byte(u >> 8)
}

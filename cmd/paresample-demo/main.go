// Command paresample-demo exercises the resampler pipeline end to end
// against synthetic PCM instead of the teacher's original demo programs
// (pcm24mix-testing/, ulaw-testing/), which read fixed absolute paths on
// the original author's machine. This generates its own sine-sweep input
// so the demo runs anywhere, while keeping the same "small main wired
// straight to the library" shape (see SPEC_FULL.md).
package main

import (
	"encoding/binary"
	"log"
	"math"
	"os"
	"path/filepath"

	paresampler "github.com/keereets/go-paresampler"
)

const (
	sweepSeconds  = 1.0
	sweepRate     = 24000
	sweepStartHz  = 200.0
	sweepEndHz    = 3000.0
	typingRate    = 24000
	typingBurstHz = 900.0
)

func main() {
	outDir := "."
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	voice := genSineSweepS16LE(sweepRate, sweepSeconds, sweepStartHz, sweepEndHz)
	typing := genBurstToneS16LE(typingRate, sweepSeconds, typingBurstHz)

	lastPos := 0
	mixedUlaw, err := paresampler.MixResampleUlaw24to8DefaultFactor(voice, typing, &lastPos)
	if err != nil {
		log.Fatalf("mix+resample to u-law: %v", err)
	}
	mustWrite(filepath.Join(outDir, "mixed.8kHz.ulaw.raw"), mixedUlaw)
	log.Printf("mixed 24kHz voice + typing -> %d bytes u-law @ 8kHz", len(mixedUlaw))

	resampled16k, err := paresampler.Resample24kHzTo16kHz(voice)
	if err != nil {
		log.Fatalf("resample 24kHz->16kHz: %v", err)
	}
	mustWrite(filepath.Join(outDir, "voice.16kHz.s16le.raw"), resampled16k)
	log.Printf("resampled voice 24kHz -> 16kHz: %d bytes", len(resampled16k))

	remixed := remixMonoToStereo(voice)
	mustWrite(filepath.Join(outDir, "voice.stereo.s16le.raw"), remixed)
	log.Printf("remixed mono voice to stereo: %d bytes", len(remixed))
}

// genSineSweepS16LE synthesizes a linear frequency sweep as mono S16LE PCM.
func genSineSweepS16LE(rate int, seconds, startHz, endHz float64) []byte {
	n := int(float64(rate) * seconds)
	out := make([]byte, n*2)
	var phase float64
	for i := 0; i < n; i++ {
		t := float64(i) / float64(rate)
		hz := startHz + (endHz-startHz)*(t/seconds)
		phase += 2 * math.Pi * hz / float64(rate)
		v := int16(0.6 * 32767 * math.Sin(phase))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// genBurstToneS16LE synthesizes an intermittent tone standing in for a
// "typing" interference sound in the mixer demo.
func genBurstToneS16LE(rate int, seconds, hz float64) []byte {
	n := int(float64(rate) * seconds)
	out := make([]byte, n*2)
	burstPeriod := rate / 4
	for i := 0; i < n; i++ {
		v := 0.0
		if (i/burstPeriod)%2 == 0 {
			v = 0.3 * 32767 * math.Sin(2*math.Pi*hz*float64(i)/float64(rate))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// remixMonoToStereo upmixes a mono stream to front-left/front-right stereo
// at an unchanged rate through the orchestrator's channel-remix path
// (§4.2), exercising component B end to end in the demo rather than just
// the rate-conversion half of the pipeline.
func remixMonoToStereo(monoS16LE []byte) []byte {
	pool := paresampler.NewPool(1 << 22)
	in := paresampler.StreamSpec{
		Rate: sweepRate, Format: paresampler.FormatS16NE, Channels: 1,
		Map: paresampler.ChannelMap{paresampler.PositionMono},
	}
	out := paresampler.StreamSpec{
		Rate: sweepRate, Format: paresampler.FormatS16NE, Channels: 2,
		Map: paresampler.ChannelMap{paresampler.PositionFrontLeft, paresampler.PositionFrontRight},
	}

	r, err := paresampler.NewResampler(pool, in, out, paresampler.MethodSrcLinear, paresampler.FlagVariableRate)
	if err != nil {
		log.Fatalf("building remix resampler: %v", err)
	}
	defer r.Close()

	log.Printf("remix matrix:\n%s", r.Matrix())
	return r.Run(monoS16LE)
}

func mustWrite(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
}

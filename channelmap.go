// channelmap.go
package paresampler

import (
	"fmt"
	"strings"
)

// MaxChannels bounds the size of a ChannelMap, mirroring the teacher's
// config.go maxChannels constant (itself standing in for
// PA_CHANNELS_MAX).
const MaxChannels = maxChannels

// ChannelPosition names a speaker position within a ChannelMap. The
// values and their left/right/center/LFE/front/rear/side classification
// mirror pa_channel_position_t and the on_left/on_right/... helpers in
// §6 of the specification.
type ChannelPosition int

const (
	PositionMono ChannelPosition = iota
	PositionFrontLeft
	PositionFrontRight
	PositionFrontCenter
	PositionRearCenter
	PositionRearLeft
	PositionRearRight
	PositionLFE
	PositionFrontLeftOfCenter
	PositionFrontRightOfCenter
	PositionSideLeft
	PositionSideRight
	PositionTopCenter
	PositionTopFrontLeft
	PositionTopFrontRight
	PositionTopFrontCenter
	PositionTopRearLeft
	PositionTopRearRight
	PositionTopRearCenter
)

// ChannelMap assigns a ChannelPosition to each of a stream's channels.
type ChannelMap []ChannelPosition

// Equal reports whether two channel maps have the same length and the
// same position in every slot.
func (m ChannelMap) Equal(o ChannelMap) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] != o[i] {
			return false
		}
	}
	return true
}

func onLeft(p ChannelPosition) bool {
	switch p {
	case PositionFrontLeft, PositionRearLeft, PositionFrontLeftOfCenter,
		PositionSideLeft, PositionTopFrontLeft, PositionTopRearLeft:
		return true
	}
	return false
}

func onRight(p ChannelPosition) bool {
	switch p {
	case PositionFrontRight, PositionRearRight, PositionFrontRightOfCenter,
		PositionSideRight, PositionTopFrontRight, PositionTopRearRight:
		return true
	}
	return false
}

func onCenter(p ChannelPosition) bool {
	switch p {
	case PositionFrontCenter, PositionRearCenter, PositionTopCenter,
		PositionTopFrontCenter, PositionTopRearCenter:
		return true
	}
	return false
}

func onLFE(p ChannelPosition) bool {
	return p == PositionLFE
}

func onFront(p ChannelPosition) bool {
	switch p {
	case PositionFrontLeft, PositionFrontRight, PositionFrontCenter,
		PositionTopFrontLeft, PositionTopFrontRight, PositionTopFrontCenter,
		PositionFrontLeftOfCenter, PositionFrontRightOfCenter:
		return true
	}
	return false
}

func onRear(p ChannelPosition) bool {
	switch p {
	case PositionRearLeft, PositionRearRight, PositionRearCenter,
		PositionTopRearLeft, PositionTopRearRight, PositionTopRearCenter:
		return true
	}
	return false
}

func onSide(p ChannelPosition) bool {
	switch p {
	case PositionSideLeft, PositionSideRight, PositionTopCenter:
		return true
	}
	return false
}

type frontRearSide int

const (
	frsFront frontRearSide = iota
	frsRear
	frsSide
	frsOther
)

func classifyFrontRearSide(p ChannelPosition) frontRearSide {
	if onFront(p) {
		return frsFront
	}
	if onRear(p) {
		return frsRear
	}
	if onSide(p) {
		return frsSide
	}
	return frsOther
}

// Matrix is an O x I remix matrix in two parallel representations: a
// float gain per (output, input) channel pair, and the same gain
// quantized to 16.16 fixed point for integer-domain backends (§6).
type Matrix struct {
	OutChannels int
	InChannels  int
	Float       [][]float32
	Fixed       [][]int32 // 16.16 fixed point
}

func newMatrix(outCh, inCh int) *Matrix {
	f := make([][]float32, outCh)
	i := make([][]int32, outCh)
	for oc := range f {
		f[oc] = make([]float32, inCh)
		i[oc] = make([]int32, inCh)
	}
	return &Matrix{OutChannels: outCh, InChannels: inCh, Float: f, Fixed: i}
}

// String renders the matrix as the fixed-width ASCII table the original
// resampler logs at debug level after building it (supplemented feature:
// no logger here, so this is exposed as a Stringer for callers/tests).
func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString("     ")
	for ic := 0; ic < m.InChannels; ic++ {
		fmt.Fprintf(&b, "  I%02d ", ic)
	}
	b.WriteString("\n    +")
	for ic := 0; ic < m.InChannels; ic++ {
		b.WriteString("------")
	}
	b.WriteString("\n")
	for oc := 0; oc < m.OutChannels; oc++ {
		fmt.Fprintf(&b, "O%02d |", oc)
		for ic := 0; ic < m.InChannels; ic++ {
			fmt.Fprintf(&b, " %1.3f", m.Float[oc][ic])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// remapFlags controls which stages of calcMapTable run, mirroring the
// NO_REMAP/NO_REMIX/NO_LFE resampler flags (§6).
type remapFlags struct {
	noRemap bool
	noRemix bool
	noLFE   bool
}

// calcMapTable ports calc_map_table from the original resampler.c: given
// input/output channel maps and the active flags, it builds the O x I
// remix matrix through direct-name connection, per-region averaging
// fallback, unconnected-input fan-in, the center-rescue pass, and
// row normalization. It reports whether remapping is needed at all; when
// it is not, the returned matrix is nil.
func calcMapTable(inMap, outMap ChannelMap, flags remapFlags) (*Matrix, bool) {
	nIC := len(inMap)
	nOC := len(outMap)

	mapRequired := nIC != nOC || (!flags.noRemap && !inMap.Equal(outMap))
	if !mapRequired {
		return nil, false
	}

	m := newMatrix(nOC, nIC)
	icConnected := make([]bool, nIC)
	remix := !flags.noRemap && !flags.noRemix

	switch {
	case flags.noRemap:
		for oc := 0; oc < minInt(nIC, nOC); oc++ {
			m.Float[oc][oc] = 1.0
		}

	case flags.noRemix:
		for oc := 0; oc < nOC; oc++ {
			b := outMap[oc]
			for ic := 0; ic < nIC; ic++ {
				if inMap[ic] == b {
					m.Float[oc][ic] = 1.0
				}
			}
		}

	default:
		if !remix {
			panic("paresampler: internal invariant violated: remix flag combination")
		}

		var icLeft, icRight, icCenter int
		for ic := 0; ic < nIC; ic++ {
			if onLeft(inMap[ic]) {
				icLeft++
			}
			if onRight(inMap[ic]) {
				icRight++
			}
			if onCenter(inMap[ic]) {
				icCenter++
			}
		}

		for oc := 0; oc < nOC; oc++ {
			b := outMap[oc]
			ocConnected := false

			for ic := 0; ic < nIC; ic++ {
				a := inMap[ic]
				switch {
				case a == b || a == PositionMono:
					m.Float[oc][ic] = 1.0
					ocConnected = true
					icConnected[ic] = true
				case b == PositionMono:
					m.Float[oc][ic] = 1.0 / float32(nIC)
					ocConnected = true
					icConnected[ic] = true
				}
			}

			if ocConnected {
				continue
			}

			switch {
			case onLeft(b):
				if icLeft > 0 {
					for ic := 0; ic < nIC; ic++ {
						if onLeft(inMap[ic]) {
							m.Float[oc][ic] = 1.0 / float32(icLeft)
							icConnected[ic] = true
						}
					}
				}
			case onRight(b):
				if icRight > 0 {
					for ic := 0; ic < nIC; ic++ {
						if onRight(inMap[ic]) {
							m.Float[oc][ic] = 1.0 / float32(icRight)
							icConnected[ic] = true
						}
					}
				}
			case onCenter(b):
				if icCenter > 0 {
					for ic := 0; ic < nIC; ic++ {
						if onCenter(inMap[ic]) {
							m.Float[oc][ic] = 1.0 / float32(icCenter)
							icConnected[ic] = true
						}
					}
				} else if icLeft+icRight > 0 {
					for ic := 0; ic < nIC; ic++ {
						if onLeft(inMap[ic]) || onRight(inMap[ic]) {
							m.Float[oc][ic] = 1.0 / float32(icLeft+icRight)
							icConnected[ic] = true
						}
					}
				}
			case onLFE(b) && !flags.noLFE:
				for ic := 0; ic < nIC; ic++ {
					m.Float[oc][ic] = 1.0 / float32(nIC)
				}
			}
		}

		var icUnconnectedLeft, icUnconnectedRight, icUnconnectedCenter, icUnconnectedLFE int
		for ic := 0; ic < nIC; ic++ {
			if icConnected[ic] {
				continue
			}
			a := inMap[ic]
			switch {
			case onLeft(a):
				icUnconnectedLeft++
			case onRight(a):
				icUnconnectedRight++
			case onCenter(a):
				icUnconnectedCenter++
			case onLFE(a):
				icUnconnectedLFE++
			}
		}

		icUnconnectedCenterMixedIn := false

		for ic := 0; ic < nIC; ic++ {
			if icConnected[ic] {
				continue
			}
			a := inMap[ic]

			for oc := 0; oc < nOC; oc++ {
				b := outMap[oc]
				switch {
				case onLeft(a) && onLeft(b):
					m.Float[oc][ic] = (1.0 / 9.0) / float32(icUnconnectedLeft)
				case onRight(a) && onRight(b):
					m.Float[oc][ic] = (1.0 / 9.0) / float32(icUnconnectedRight)
				case onCenter(a) && onCenter(b):
					m.Float[oc][ic] = (1.0 / 9.0) / float32(icUnconnectedCenter)
					icUnconnectedCenterMixedIn = true
				case onLFE(a) && !flags.noLFE:
					m.Float[oc][ic] = 0.375 / float32(icUnconnectedLFE)
				}
			}
		}

		if icUnconnectedCenter > 0 && !icUnconnectedCenterMixedIn {
			ncenter := make([]int, nOC)
			foundFRS := make([]bool, nIC)

			for ic := 0; ic < nIC; ic++ {
				if icConnected[ic] || !onCenter(inMap[ic]) {
					continue
				}

				for oc := 0; oc < nOC; oc++ {
					if !onLeft(outMap[oc]) && !onRight(outMap[oc]) {
						continue
					}
					if classifyFrontRearSide(inMap[ic]) == classifyFrontRearSide(outMap[oc]) {
						foundFRS[ic] = true
						break
					}
				}

				for oc := 0; oc < nOC; oc++ {
					if !onLeft(outMap[oc]) && !onRight(outMap[oc]) {
						continue
					}
					if !foundFRS[ic] || classifyFrontRearSide(inMap[ic]) == classifyFrontRearSide(outMap[oc]) {
						ncenter[oc]++
					}
				}
			}

			for oc := 0; oc < nOC; oc++ {
				if !onLeft(outMap[oc]) && !onRight(outMap[oc]) {
					continue
				}
				if ncenter[oc] <= 0 {
					continue
				}
				for ic := 0; ic < nIC; ic++ {
					if !onCenter(inMap[ic]) {
						continue
					}
					if !foundFRS[ic] || classifyFrontRearSide(inMap[ic]) == classifyFrontRearSide(outMap[oc]) {
						m.Float[oc][ic] = 0.5 / float32(ncenter[oc])
					}
				}
			}
		}
	}

	for oc := 0; oc < nOC; oc++ {
		var sum float32
		for ic := 0; ic < nIC; ic++ {
			sum += m.Float[oc][ic]
		}
		if sum > 1.0 {
			for ic := 0; ic < nIC; ic++ {
				m.Float[oc][ic] /= sum
			}
		}
	}

	for oc := 0; oc < nOC; oc++ {
		for ic := 0; ic < nIC; ic++ {
			m.Fixed[oc][ic] = int32(m.Float[oc][ic] * 0x10000)
		}
	}

	return m, true
}

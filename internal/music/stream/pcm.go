package stream

import (
	"encoding/binary"
	"math"
)

// decodePCM converts little endian s16 bytes into samples scaled by gain.
func decodePCM(dst []int16, src []byte, gain float64) {
	for i := range dst {
		s := int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
		if gain == 1 {
			dst[i] = s
			continue
		}
		v := math.Round(float64(s) * gain)
		dst[i] = int16(min(max(v, math.MinInt16), math.MaxInt16))
	}
}

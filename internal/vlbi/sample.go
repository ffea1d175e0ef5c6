package vlbi

import (
	"encoding/binary"
	"math"
)

// DecodeSamples interprets a raw little-endian byte payload according to
// bitsPerSample and returns the canonical real sample sequence. A
// negative bitsPerSample selects an IEEE-754 float decode (magnitude 32
// or 64); a positive value selects a signed integer decode (8, 16, 32 or
// 64). Any other magnitude is rejected with ErrInvalidInput rather than
// silently ignored — the original's clamp-to-nearest-supported-width
// behavior is not carried forward.
func DecodeSamples(raw []byte, bitsPerSample int) ([]float64, error) {
	magnitude := bitsPerSample
	isFloat := magnitude < 0
	if isFloat {
		magnitude = -magnitude
	}

	width, err := byteWidth(magnitude, isFloat)
	if err != nil {
		return nil, err
	}
	if len(raw)%width != 0 {
		return nil, newErr(ErrInvalidInput, "payload length %d is not a multiple of sample width %d", len(raw), width)
	}

	n := len(raw) / width
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		chunk := raw[i*width : (i+1)*width]
		if isFloat {
			out[i] = decodeFloat(chunk, magnitude)
		} else {
			out[i] = decodeSignedInt(chunk, magnitude)
		}
	}
	return out, nil
}

func byteWidth(magnitude int, isFloat bool) (int, error) {
	if isFloat {
		switch magnitude {
		case 32, 64:
			return magnitude / 8, nil
		default:
			return 0, newErr(ErrInvalidInput, "unsupported float bitspersample magnitude %d", magnitude)
		}
	}
	switch magnitude {
	case 8, 16, 32, 64:
		return magnitude / 8, nil
	default:
		return 0, newErr(ErrInvalidInput, "unsupported integer bitspersample magnitude %d", magnitude)
	}
}

func decodeFloat(chunk []byte, magnitude int) float64 {
	if magnitude == 32 {
		bits := binary.LittleEndian.Uint32(chunk)
		return float64(math.Float32frombits(bits))
	}
	bits := binary.LittleEndian.Uint64(chunk)
	return math.Float64frombits(bits)
}

func decodeSignedInt(chunk []byte, magnitude int) float64 {
	switch magnitude {
	case 8:
		return float64(int8(chunk[0]))
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(chunk)))
	case 32:
		return float64(int32(binary.LittleEndian.Uint32(chunk)))
	default: // 64
		return float64(int64(binary.LittleEndian.Uint64(chunk)))
	}
}

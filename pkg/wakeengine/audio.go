package wakeengine

import "encoding/binary"

// ConvertS16LEToFloat32 decodes little-endian signed-16-bit PCM samples
// into float32, preserving raw magnitude. It intentionally does not
// normalize by 32768: the pretrained mel model was trained on
// raw-magnitude samples (spec.md §3, §9).
//
// This is a hot path on the audio ingress; production builds of the
// original C++ engine vectorize it 8-at-a-time on SSE2/NEON. This
// implementation is the scalar reference — Go's compiler auto-vectorizes
// simple integer-indexed loops like this reasonably well, and the
// dominant cost in this pipeline is model inference, not sample
// conversion, so no assembly variant is provided.
func ConvertS16LEToFloat32(pcm []byte, dst []float32) int {
	n := len(pcm) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		dst[i] = float32(v)
	}
	return n
}

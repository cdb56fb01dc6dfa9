package utils

import "encoding/binary"

// PCMToWAV wraps raw little-endian PCM samples in a RIFF/WAVE container so
// the clip is directly playable. The TTS provider returns headerless PCM.
func PCMToWAV(pcm []byte, sampleRate, numChannels, bitsPerSample int) []byte {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if numChannels <= 0 {
		numChannels = 1
	}
	if bitsPerSample <= 0 {
		bitsPerSample = 16
	}

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataLen := len(pcm)

	out := make([]byte, 44+dataLen)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))
	copy(out[44:], pcm)
	return out
}

// StripWAVHeader returns the raw PCM payload of a canonical 44-byte-header
// WAV clip. Non-WAV input is returned unchanged.
func StripWAVHeader(b []byte) []byte {
	if len(b) > 44 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE" {
		return b[44:]
	}
	return b
}

// IsPlayableWAV reports whether the bytes look like a well-formed WAV clip
// with a non-empty data chunk. Used to detect corrupted cache entries
// before handing them to the playback engine.
func IsPlayableWAV(b []byte) bool {
	if len(b) <= 44 {
		return false
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return false
	}
	dataLen := binary.LittleEndian.Uint32(b[40:44])
	return dataLen > 0 && int(dataLen) <= len(b)-44
}

package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/candor/internal/interview"
)

const (
	SampleRate = 16000
	Channels   = 1
)

// WAVContainer wraps little-endian 16-bit PCM chunks in a RIFF header.
type WAVContainer struct {
	SampleRate int
	Channels   int
}

func (WAVContainer) MIMEType() string { return "audio/wav" }

func (c WAVContainer) Package(chunks [][]byte) []byte {
	size := 0
	for _, chunk := range chunks {
		size += len(chunk)
	}
	if size == 0 {
		return nil
	}
	out := make([]byte, 0, 44+size)
	out = append(out, wavHeader(size, c.SampleRate, c.Channels)...)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out
}

// wavHeader builds the 44-byte PCM header for pcmBytes of sample data.
func wavHeader(pcmBytes int, sampleRate int, channels int) []byte {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	if channels <= 0 {
		channels = Channels
	}
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+pcmBytes))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(pcmBytes))
	return header
}

// writeDump stores a recording under dir and returns its path.
func writeDump(dir string, rec *interview.Recording) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create dump dir: %w", err)
	}
	name := fmt.Sprintf("answer-%s.%s", time.Now().Format("20060102-150405.000"), ExtensionFor(rec.MIMEType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, rec.Data, 0o600); err != nil {
		return "", fmt.Errorf("write dump: %w", err)
	}
	return path, nil
}

// ExtensionFor maps a recording MIME type to a file extension.
func ExtensionFor(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "video/webm", "audio/webm":
		return "webm"
	case "video/mp4", "audio/mp4":
		return "mp4"
	case "audio/ogg":
		return "ogg"
	default:
		return "bin"
	}
}

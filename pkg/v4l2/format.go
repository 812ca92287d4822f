package v4l2

// PixelFormat is a FourCC pixel format code.
type PixelFormat uint32

// Common pixel formats.
const (
	PixFmtYUYV   PixelFormat = 0x56595559 // 'YUYV'
	PixFmtUYVY   PixelFormat = 0x59565955 // 'UYVY'
	PixFmtRGB565 PixelFormat = 0x50424752 // 'RGBP'
	PixFmtJPEG   PixelFormat = 0x4745504A // 'JPEG'
	PixFmtMJPEG  PixelFormat = 0x47504A4D // 'MJPG'
	PixFmtNV12   PixelFormat = 0x3231564E // 'NV12'
	PixFmtH264   PixelFormat = 0x34363248 // 'H264'
)

// FourCC builds a pixel format from its four characters.
func FourCC(a, b, c, d byte) PixelFormat {
	return PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// ParsePixelFormat converts a four character string to a PixelFormat.
// Shorter strings are padded with spaces.
func ParsePixelFormat(s string) PixelFormat {
	var b [4]byte
	for i := range b {
		b[i] = ' '
		if i < len(s) {
			b[i] = s[i]
		}
	}
	return FourCC(b[0], b[1], b[2], b[3])
}

// String converts the format to its four character representation.
func (p PixelFormat) String() string {
	return FormatFourCC(uint32(p))
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}

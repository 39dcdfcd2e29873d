package archive

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Format identifies an archive container
type Format int

const (
	// FormatUnknown is an archive that could not be identified
	FormatUnknown Format = iota
	// FormatZip is a PKZIP archive
	FormatZip
	// FormatTar is an uncompressed tarball
	FormatTar
	// FormatTarGz is a gzip-compressed tarball
	FormatTarGz
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	default:
		return "unknown"
	}
}

var (
	// Signatures a zip may start with; an empty zip starts with its end record
	zipMagics = [][]byte{
		[]byte("PK\x03\x04"),
		[]byte("PK\x05\x06"),
		[]byte("PK\x07\x08"),
	}
	gzipMagic = []byte{0x1f, 0x8b}
	tarMagic  = []byte("ustar")
)

// DetectFormat identifies an archive by suffix, falling back to magic bytes
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar
	}
	return sniffFormat(path)
}

func sniffFormat(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer f.Close()

	header := make([]byte, 512)
	n, _ := io.ReadFull(f, header)
	header = header[:n]

	switch {
	case isZipHeader(header):
		return FormatZip
	case bytes.HasPrefix(header, gzipMagic):
		return FormatTarGz
	case len(header) >= 262 && bytes.Equal(header[257:262], tarMagic):
		return FormatTar
	default:
		return FormatUnknown
	}
}

func isZipHeader(header []byte) bool {
	for _, magic := range zipMagics {
		if bytes.HasPrefix(header, magic) {
			return true
		}
	}
	return false
}

package services

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// DefaultHashPrefixSize is how many leading bytes PrefixMD5 digests.
const DefaultHashPrefixSize = 16384

// StringMD5 returns the lowercase hex MD5 of the UTF-8 bytes of s.
// This is the digest KOReader applies to filenames and passwords.
func StringMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// PrefixMD5 digests up to prefixSize leading bytes of the file. Files
// shorter than the prefix hash exactly the bytes present. I/O and
// permission failures return "" so a library scan can keep going past
// files that vanished or are locked mid-scan.
func PrefixMD5(path string, prefixSize int64) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyN(h, f, prefixSize); err != nil && err != io.EOF {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SparseMD5 reproduces KOReader's fast digest for "binary" document
// matching: 1KB windows at offsets 1024*4^i for i from -1 through 10,
// all fed into a single running MD5. Offsets at or past the end of the
// file stop the walk; a short final window contributes only the bytes
// actually read. Cost is bounded at a dozen small reads regardless of
// file size. Returns "" on any I/O failure.
func SparseMD5(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ""
	}
	size := info.Size()

	h := md5.New()
	buf := make([]byte, 1024)
	// 1024*4^-1 = 256 is the first sampled offset.
	offset := int64(256)
	for i := 0; i < 12; i++ {
		if offset >= size {
			break
		}
		n, err := f.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return ""
		}
		if n > 0 {
			h.Write(buf[:n])
		}
		if n < len(buf) {
			break
		}
		offset *= 4
	}
	return hex.EncodeToString(h.Sum(nil))
}

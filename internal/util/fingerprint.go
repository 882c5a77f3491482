package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"
)

// FileFingerprint returns the CRC32 of a file's content.
func FileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%08x", h.Sum32()), nil
}

// FilesFingerprint combines the fingerprints of paths, ignoring their
// order. A missing file contributes its name only.
func FilesFingerprint(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := crc32.NewIEEE()
	for _, p := range sorted {
		fp, err := FileFingerprint(p)
		if err != nil && !os.IsNotExist(err) {
			return "", err
		}
		fmt.Fprintf(h, "%s=%s\n", p, fp)
	}
	return fmt.Sprintf("%08x", h.Sum32()), nil
}

package filesystem

import (
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// sniffLimit caps how much content is inspected for charset detection.
const sniffLimit = 32 * 1024

// Meta describes loaded file content.
type Meta struct {
	MIME    string
	Charset string
}

// Detect sniffs data. Content that is not text yields ErrBinary together
// with the detected MIME type.
func Detect(data []byte) (Meta, error) {
	mtype := mimetype.Detect(data)
	meta := Meta{MIME: mtype.String()}

	if !isText(mtype) {
		return meta, ErrBinary
	}
	meta.Charset = DetectCharset(data)
	return meta, nil
}

// DetectCharset returns the lowercased charset name of data. Valid UTF-8
// short-circuits the statistical detector.
func DetectCharset(data []byte) string {
	sample := data
	if len(sample) > sniffLimit {
		sample = trimPartialRune(sample[:sniffLimit])
	}
	if utf8.Valid(sample) {
		return "utf-8"
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(sample)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "text/") ||
			m.Is("application/json") ||
			m.Is("application/xml") ||
			m.Is("application/javascript") {
			return true
		}
	}
	return false
}

// trimPartialRune drops a multi-byte sequence cut off by the sample limit.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

package object

// String is an immutable UTF-8 byte sequence with a precomputed hash
// (spec.md §4.3). Length is byte length; character operations decode
// UTF-8 explicitly, matching the byte-level contract in the table in
// §4.3. Grounded on original_source/c2/d/include/unicodeUtf8.c, which
// this codec is a direct, faithful port of.
type String struct {
	ObjHeader
	Value string
	Hash  uint64
}

func NewString(s string) *String {
	return &String{ObjHeader: ObjHeader{Kind: KindString}, Value: s, Hash: HashBytes(s)}
}

// HashBytes is FNV-1a, computed once at string construction time and
// never recomputed (spec.md §4.3: "computed on construction").
func HashBytes(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func (s *String) Len() int { return len(s.Value) }

// ByteCountToDecode returns the expected total byte length of the
// UTF-8 sequence starting with firstByte, or 0 if firstByte is itself
// a continuation byte (10xxxxxx).
func ByteCountToDecode(firstByte byte) int {
	if firstByte&0xc0 == 0x80 {
		return 0
	}
	if firstByte&0xf8 == 0xf0 {
		return 4
	}
	if firstByte&0xf0 == 0xe0 {
		return 3
	}
	if firstByte&0xe0 == 0xc0 {
		return 2
	}
	return 1
}

// ByteCountToEncode returns the number of bytes needed to encode value
// as UTF-8, or 0 if value is out of range (spec.md §4.3 table).
func ByteCountToEncode(value int) int {
	switch {
	case value < 0:
		return 0
	case value <= 0x7f:
		return 1
	case value <= 0x7ff:
		return 2
	case value <= 0xffff:
		return 3
	case value <= 0x10ffff:
		return 4
	default:
		return 0
	}
}

// Encode writes value's UTF-8 encoding into buf (which must have room
// for ByteCountToEncode(value) bytes) and returns the number of bytes
// written, or 0 on failure (code point > U+10FFFF or negative).
func Encode(buf []byte, value int) int {
	n := ByteCountToEncode(value)
	switch n {
	case 1:
		buf[0] = byte(value & 0x7f)
	case 2:
		buf[0] = byte(0xc0 | ((value & 0x7c0) >> 6))
		buf[1] = byte(0x80 | (value & 0x3f))
	case 3:
		buf[0] = byte(0xe0 | ((value & 0xf000) >> 12))
		buf[1] = byte(0x80 | ((value & 0xfc0) >> 6))
		buf[2] = byte(0x80 | (value & 0x3f))
	case 4:
		buf[0] = byte(0xf0 | ((value & 0x1c0000) >> 18))
		buf[1] = byte(0x80 | ((value & 0x3f000) >> 12))
		buf[2] = byte(0x80 | ((value & 0xfc0) >> 6))
		buf[3] = byte(0x80 | (value & 0x3f))
	}
	return n
}

// Decode reads the UTF-8 sequence at the start of bytes (at most
// maxLen bytes available) and returns the code point, or -1 on
// truncation, a bad continuation byte, or a bad lead byte.
func Decode(bytes []byte, maxLen int) int {
	if maxLen <= 0 {
		return -1
	}
	first := bytes[0]
	if first <= 0x7f {
		return int(first)
	}
	var value, remaining int
	switch {
	case first&0xe0 == 0xc0:
		value = int(first & 0x1f)
		remaining = 1
	case first&0xf0 == 0xe0:
		value = int(first & 0x0f)
		remaining = 2
	case first&0xf8 == 0xf0:
		value = int(first & 0x07)
		remaining = 3
	default:
		return -1
	}
	if remaining > maxLen-1 {
		return -1
	}
	for i := 1; i <= remaining; i++ {
		b := bytes[i]
		if b&0xc0 != 0x80 {
			return -1
		}
		value = value<<6 | int(b&0x3f)
	}
	return value
}

// CodePointCount returns the number of UTF-8 code points encoded in s.
func CodePointCount(s string) int {
	count := 0
	b := []byte(s)
	for i := 0; i < len(b); {
		n := ByteCountToDecode(b[i])
		if n == 0 {
			n = 1
		}
		i += n
		count++
	}
	return count
}

// CodePointAt returns the UTF-8 substring for the codePointIndex-th
// code point in s (used by String[i] indexing, spec.md §8's UTF-8
// scenario: "héllo"[1] == "é").
func CodePointAt(s string, codePointIndex int) (string, bool) {
	b := []byte(s)
	idx := 0
	for i := 0; i < len(b); {
		n := ByteCountToDecode(b[i])
		if n == 0 {
			n = 1
		}
		if i+n > len(b) {
			n = len(b) - i
		}
		if idx == codePointIndex {
			return string(b[i : i+n]), true
		}
		i += n
		idx++
	}
	return "", false
}

// BMHSearch finds the first occurrence of needle in haystack using
// Boyer-Moore-Horspool with a 256-entry bad-character shift table
// (spec.md §4.3), returning its byte offset or -1.
func BMHSearch(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m == 0 {
		return 0
	}
	if m > n {
		return -1
	}
	var shift [256]int
	for i := range shift {
		shift[i] = m
	}
	for i := 0; i < m-1; i++ {
		shift[needle[i]] = m - 1 - i
	}
	pos := 0
	for pos <= n-m {
		i := m - 1
		for i >= 0 && haystack[pos+i] == needle[i] {
			i--
		}
		if i < 0 {
			return pos
		}
		pos += shift[haystack[pos+m-1]]
	}
	return -1
}

package scanner

import "strconv"

// Atoi parses like C atoi: leading blanks, an optional sign, then digits
// up to the first non-digit. Fields without digits ("????", "   ") give 0.
func Atoi(s string) int {
	return int(Atoi64(s))
}

// Atoi64 is Atoi with a 64-bit result.
func Atoi64(s string) int64 {
	i := skipBlanks(s)
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var v int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		return -v
	}
	return v
}

// ScanUint parses an unsigned decimal field the way strtoull does.
func ScanUint(s string) uint64 {
	i := skipBlanks(s)
	if i < len(s) && s[i] == '+' {
		i++
	}
	var v uint64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + uint64(s[i]-'0')
	}
	return v
}

func skipBlanks(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\v' || s[i] == '\f') {
		i++
	}
	return i
}

// Atof parses the longest numeric prefix of s like C atof; 0 when there
// is none.
func Atof(s string) float64 {
	s = s[skipBlanks(s):]
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

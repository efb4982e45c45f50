package rtf

import (
	"strconv"
	"strings"
)

// destinations whose groups hold no displayable text.
var skipDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"listtable":  true,
	"header":     true,
	"footer":     true,
	"generator":  true,
	"themedata":  true,
}

// Strip reduces an RTF payload to plain text. Input that is not RTF is
// returned with surrounding whitespace trimmed.
func Strip(s string) string {
	if !IsRTF(s) {
		return strings.TrimSpace(s)
	}

	var out strings.Builder
	skip := []bool{false}
	skipping := func() bool { return skip[len(skip)-1] }
	emit := func(r rune) {
		if !skipping() {
			out.WriteRune(r)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			skip = append(skip, skipping())
		case '}':
			if len(skip) > 1 {
				skip = skip[:len(skip)-1]
			}
		case '\r', '\n':
		case '\\':
			if i+1 >= len(s) {
				break
			}
			next := s[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				emit(rune(next))
				i++
			case next == '\'':
				if i+3 < len(s) {
					if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
						emit(rune(v))
					}
				}
				i += 3
			case next == '*':
				skip[len(skip)-1] = true
				i++
			case next == '~':
				emit(' ')
				i++
			case next == '_':
				emit('-')
				i++
			case isLetter(next):
				j := i + 1
				for j < len(s) && isLetter(s[j]) {
					j++
				}
				word := s[i+1 : j]
				k := j
				if k < len(s) && (s[k] == '-' || isDigit(s[k])) {
					k++
					for k < len(s) && isDigit(s[k]) {
						k++
					}
				}
				param := s[j:k]
				if k < len(s) && s[k] == ' ' {
					k++
				}
				i = k - 1
				switch {
				case word == "par" || word == "line":
					emit('\n')
				case word == "tab":
					emit('\t')
				case word == "u" && param != "":
					if v, err := strconv.Atoi(param); err == nil {
						if v < 0 {
							v += 65536
						}
						emit(rune(v))
					}
					if i+1 < len(s) && s[i+1] == '?' {
						i++
					}
				case skipDestinations[word]:
					skip[len(skip)-1] = true
				}
			default:
				i++
			}
		default:
			if !skipping() {
				out.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(out.String())
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

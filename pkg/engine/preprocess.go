package engine

import (
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites geometry scripts into something zygomys reads:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords never
//     collide with user variables.
//   - plane-layer becomes plane_layer, since zygomys parses a hyphen inside
//     an identifier as subtraction.
//   - ; comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)

	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"':
			j := skipQuoted(b, i, '"', true)
			out = append(out, b[i:j]...)
			i = j

		case c == '`':
			j := skipQuoted(b, i, '`', false)
			out = append(out, b[i:j]...)
			i = j

		case c == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++

		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// skipQuoted returns the index just past the literal opened at b[i].
func skipQuoted(b []byte, i int, quote byte, escapes bool) int {
	j := i + 1
	for j < len(b) && b[j] != quote {
		if escapes && b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW returns the keyword name if s is a rewritten keyword.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is a builtin argument list split into keyword and positional parts.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args. A trailing keyword without a value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

// float returns the numeric keyword name, or def if absent.
func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	return toFloat64(v)
}

// requireFloat returns the numeric keyword name, failing if absent.
func (a kwArgs) requireFloat(name string) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return 0, errMissing(name)
	}
	return toFloat64(v)
}

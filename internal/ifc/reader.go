package ifc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/rs/zerolog/log"
)

var (
	instanceRegex   = regexp.MustCompile(`(?s)^#(\d+)\s*=\s*([A-Za-z0-9_]+)\s*\((.*)\)$`)
	fileSchemaRegex = regexp.MustCompile(`^FILE_SCHEMA\s*\(\s*\(\s*'([^']*)'`)
)

// Open reads and parses the IFC file at path
func Open(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	return m, nil
}

// Parse reads an ISO-10303-21 exchange structure
func Parse(r io.Reader) (*Model, error) {
	m := newModel()
	skipped := 0

	err := scanStatements(r, func(stmt string) error {
		if strings.HasPrefix(stmt, "#") {
			match := instanceRegex.FindStringSubmatch(stmt)
			if match == nil {
				// complex instances like #1=(A()B()) carry no element types we read
				skipped++
				return nil
			}
			id, err := strconv.Atoi(match[1])
			if err != nil {
				return fmt.Errorf("invalid instance id %q: %w", match[1], err)
			}
			args, err := parseArgs(match[3])
			if err != nil {
				return fmt.Errorf("instance #%d: %w", id, err)
			}
			m.add(&Entity{ID: id, Type: strings.ToUpper(match[2]), Args: args})
			return nil
		}

		if match := fileSchemaRegex.FindStringSubmatch(stmt); match != nil {
			m.Schema = strings.ToUpper(match[1])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.index()
	log.Debug().Str("schema", m.Schema).Int("entities", len(m.entities)).Int("skipped", skipped).Msg("Parsed model")
	return m, nil
}

// scanStatements splits the stream on ';' outside of strings and comments.
// Line breaks are dropped.
func scanStatements(r io.Reader, fn func(stmt string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var sb strings.Builder
	inString := false

	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read model: %w", err)
		}

		if b == '\r' || b == '\n' {
			continue
		}

		if inString {
			sb.WriteByte(b)
			if b == '\'' {
				next, perr := br.Peek(1)
				if perr == nil && next[0] == '\'' {
					br.ReadByte()
					sb.WriteByte('\'')
					continue
				}
				inString = false
			}
			continue
		}

		switch b {
		case '\'':
			inString = true
			sb.WriteByte(b)
		case '/':
			next, perr := br.Peek(1)
			if perr == nil && next[0] == '*' {
				br.ReadByte()
				if err := skipComment(br); err != nil {
					return err
				}
				continue
			}
			sb.WriteByte(b)
		case ';':
			stmt := strings.TrimSpace(sb.String())
			sb.Reset()
			if stmt == "" {
				continue
			}
			if err := fn(stmt); err != nil {
				return err
			}
		default:
			sb.WriteByte(b)
		}
	}

	if inString {
		return fmt.Errorf("unterminated string literal")
	}
	return nil
}

func skipComment(br *bufio.Reader) error {
	var prev byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("unterminated comment: %w", err)
		}
		if prev == '*' && b == '/' {
			return nil
		}
		prev = b
	}
}

type argParser struct {
	s   string
	pos int
}

func parseArgs(s string) ([]Value, error) {
	p := &argParser{s: s}
	var args []Value
	p.skipSpace()
	if p.pos >= len(p.s) {
		return args, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return args, nil
		}
		if p.s[p.pos] != ',' {
			return nil, fmt.Errorf("expected ',' at offset %d", p.pos)
		}
		p.pos++
	}
}

func (p *argParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *argParser) value() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return Value{}, fmt.Errorf("unexpected end of attributes")
	}

	c := p.s[p.pos]
	switch {
	case c == '$':
		p.pos++
		return Value{Kind: KindNull}, nil
	case c == '*':
		p.pos++
		return Value{Kind: KindDerived}, nil
	case c == '\'':
		return p.stringValue()
	case c == '"':
		end := strings.IndexByte(p.s[p.pos+1:], '"')
		if end < 0 {
			return Value{}, fmt.Errorf("unterminated binary at offset %d", p.pos)
		}
		v := Value{Kind: KindBinary, Str: p.s[p.pos+1 : p.pos+1+end]}
		p.pos += end + 2
		return v, nil
	case c == '.':
		end := strings.IndexByte(p.s[p.pos+1:], '.')
		if end < 0 {
			return Value{}, fmt.Errorf("unterminated enumeration at offset %d", p.pos)
		}
		v := Value{Kind: KindEnum, Str: p.s[p.pos+1 : p.pos+1+end]}
		p.pos += end + 2
		return v, nil
	case c == '#':
		start := p.pos + 1
		p.pos++
		for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
			p.pos++
		}
		id, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return Value{}, fmt.Errorf("invalid reference at offset %d: %w", start, err)
		}
		return Value{Kind: KindRef, Ref: id}, nil
	case c == '(':
		return p.listValue()
	case isDigit(c) || c == '-' || c == '+':
		return p.numberValue()
	case isLetter(c):
		return p.typedValue()
	}
	return Value{}, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
}

func (p *argParser) stringValue() (Value, error) {
	i := p.pos + 1
	for i < len(p.s) {
		if p.s[i] == '\'' {
			if i+1 < len(p.s) && p.s[i+1] == '\'' {
				i += 2
				continue
			}
			v := Value{Kind: KindString, Str: decodeString(p.s[p.pos+1 : i])}
			p.pos = i + 1
			return v, nil
		}
		i++
	}
	return Value{}, fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *argParser) listValue() (Value, error) {
	p.pos++
	list := Value{Kind: KindList, List: []Value{}}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return list, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		list.List = append(list.List, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return Value{}, fmt.Errorf("unterminated list")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return list, nil
		default:
			return Value{}, fmt.Errorf("unexpected %q in list at offset %d", p.s[p.pos], p.pos)
		}
	}
}

func (p *argParser) numberValue() (Value, error) {
	start := p.pos
	isReal := false
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '.' || c == 'E' || c == 'e' {
			isReal = true
		} else if !isDigit(c) && c != '-' && c != '+' {
			break
		}
		p.pos++
	}
	text := p.s[start:p.pos]
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid real %q: %w", text, err)
		}
		return Value{Kind: KindReal, Real: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid integer %q: %w", text, err)
	}
	return Value{Kind: KindInteger, Int: n}, nil
}

func (p *argParser) typedValue() (Value, error) {
	start := p.pos
	for p.pos < len(p.s) && (isLetter(p.s[p.pos]) || isDigit(p.s[p.pos]) || p.s[p.pos] == '_') {
		p.pos++
	}
	name := strings.ToUpper(p.s[start:p.pos])
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return Value{}, fmt.Errorf("expected '(' after %s", name)
	}
	p.pos++
	inner, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != ')' {
		return Value{}, fmt.Errorf("expected ')' closing %s", name)
	}
	p.pos++
	return Value{Kind: KindTyped, TypeName: name, Inner: &inner}, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

// decodeString resolves doubled quotes and the \X\, \X2\, \X4\, \S\ and \P\ escapes
func decodeString(s string) string {
	if !strings.ContainsAny(s, `\'`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\'' && i+1 < len(s) && s[i+1] == '\'' {
			sb.WriteByte('\'')
			i += 2
			continue
		}
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}

		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, `\X2\`):
			end := strings.Index(rest, `\X0\`)
			if end < 0 {
				sb.WriteString(rest)
				i = len(s)
				continue
			}
			hex := rest[4:end]
			units := make([]uint16, 0, len(hex)/4)
			for j := 0; j+4 <= len(hex); j += 4 {
				u, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					break
				}
				units = append(units, uint16(u))
			}
			sb.WriteString(string(utf16.Decode(units)))
			i += end + 4
		case strings.HasPrefix(rest, `\X4\`):
			end := strings.Index(rest, `\X0\`)
			if end < 0 {
				sb.WriteString(rest)
				i = len(s)
				continue
			}
			hex := rest[4:end]
			for j := 0; j+8 <= len(hex); j += 8 {
				u, err := strconv.ParseUint(hex[j:j+8], 16, 32)
				if err != nil {
					break
				}
				sb.WriteRune(rune(u))
			}
			i += end + 4
		case strings.HasPrefix(rest, `\X\`) && len(rest) >= 5:
			u, err := strconv.ParseUint(rest[3:5], 16, 8)
			if err != nil {
				sb.WriteByte(c)
				i++
				continue
			}
			sb.WriteRune(rune(u))
			i += 5
		case strings.HasPrefix(rest, `\S\`) && len(rest) >= 4:
			sb.WriteRune(rune(rest[3]) + 128)
			i += 4
		case strings.HasPrefix(rest, `\P`) && len(rest) >= 4 && rest[3] == '\\':
			i += 4
		case strings.HasPrefix(rest, `\\`):
			sb.WriteByte('\\')
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

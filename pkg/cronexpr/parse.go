package cronexpr

import (
	"fmt"
	"strings"
)

type field int

const (
	fieldSecond field = iota
	fieldMinute
	fieldHour
	fieldDayOfMonth
	fieldMonth
	fieldDayOfWeek
)

const fieldExpression = "expression"

type fieldBounds struct {
	name      string
	low, high int
	names     []string // symbolic names, index 0 maps to low
}

var bounds = [...]fieldBounds{
	fieldSecond:     {name: "second", low: 0, high: 59},
	fieldMinute:     {name: "minute", low: 0, high: 59},
	fieldHour:       {name: "hour", low: 0, high: 23},
	fieldDayOfMonth: {name: "day of month", low: 1, high: 31},
	fieldMonth: {name: "month", low: 1, high: 12, names: []string{
		"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
	}},
	fieldDayOfWeek: {name: "day of week", low: 0, high: 7, names: []string{
		"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT",
	}},
}

const (
	maxLastDayOffset = 30
	minNthDayOfWeek  = 1
	maxNthDayOfWeek  = 5
)

// MustParse is like Parse but panics on error. Use it for expressions known at compile time.
func MustParse(expr string) *Schedule {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse parses a 5- or 6-field cron expression.
func Parse(expr string) (*Schedule, error) {
	p := &parser{cur: cursor{s: expr}}
	s, err := p.parse()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// cursor is a read position over the expression. peek returns 0 at the end.
type cursor struct {
	s string
	i int
}

func (c *cursor) peek() byte {
	if c.i < len(c.s) {
		return c.s[c.i]
	}
	return 0
}

func (c *cursor) advance() { c.i++ }

func (c *cursor) eof() bool { return c.i >= len(c.s) }

// skipBlanks consumes spaces and tabs and returns how many were skipped.
func (c *cursor) skipBlanks() int {
	n := 0
	for c.i < len(c.s) && isBlank(c.s[c.i]) {
		c.i++
		n++
	}
	return n
}

type parser struct {
	cur cursor
	s   *Schedule

	// state of the field being parsed
	single bool // no comma seen
	plain  bool // last item was a bare value or "L"
	bare   bool // last item was "*" or "?" without a step
}

func (p *parser) fail(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Expr: p.cur.s, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (*Schedule, error) {
	expr := p.cur.s
	if strings.TrimSpace(expr) == "" {
		return nil, p.fail(fieldExpression, "empty expression")
	}
	n := countFields(expr)
	if n != 5 && n != 6 {
		return nil, p.fail(fieldExpression, "expected 5 or 6 fields, got %d", n)
	}
	s := &Schedule{expr: expr, fields: n}
	p.s = s
	p.cur.skipBlanks()

	if n == 6 {
		s.flags.SecondStar = p.cur.peek() == '*'
		v, err := p.field(fieldSecond)
		if err != nil {
			return nil, err
		}
		s.second = v
	} else {
		s.second = 1 // second 0
	}

	s.flags.MinuteStar = p.cur.peek() == '*'
	v, err := p.field(fieldMinute)
	if err != nil {
		return nil, err
	}
	s.minute = v

	s.flags.HourStar = p.cur.peek() == '*'
	if v, err = p.field(fieldHour); err != nil {
		return nil, err
	}
	s.hour = uint32(v)

	if err := p.dayOfMonth(); err != nil {
		return nil, err
	}

	if v, err = p.field(fieldMonth); err != nil {
		return nil, err
	}
	s.month = uint16(v)

	if err := p.dayOfWeek(); err != nil {
		return nil, err
	}

	s.interval = (n == 5 || s.flags.SecondStar) && s.flags.MinuteStar && s.flags.HourStar
	return s, nil
}

// field parses a list and the separator that follows it.
func (p *parser) field(f field) (uint64, error) {
	v, err := p.list(f)
	if err != nil {
		return 0, err
	}
	if err := p.separator(f); err != nil {
		return 0, err
	}
	return v, nil
}

func (p *parser) dayOfMonth() error {
	s := p.s
	switch p.cur.peek() {
	case '*':
		s.flags.DayOfMonthStar = true
	case '?':
		s.flags.DayOfMonthQuestion = true
	}
	v, err := p.list(fieldDayOfMonth)
	if err != nil {
		return err
	}
	s.dayOfMonth = uint32(v)
	s.domRestricted = !(p.single && p.bare)

	if p.cur.peek() == 'W' {
		if !p.single || !p.plain {
			return p.fail(bounds[fieldDayOfMonth].name, "W requires a single day")
		}
		p.cur.advance()
		s.flags.NearestWeekday = true
	}
	return p.separator(fieldDayOfMonth)
}

func (p *parser) dayOfWeek() error {
	s := p.s
	name := bounds[fieldDayOfWeek].name
	switch p.cur.peek() {
	case '*':
		s.flags.DayOfWeekStar = true
	case '?':
		if s.flags.DayOfMonthQuestion {
			return p.fail(name, "'?' cannot be used in both day fields")
		}
		s.flags.DayOfWeekQuestion = true
	}
	v, err := p.list(fieldDayOfWeek)
	if err != nil {
		return err
	}
	s.dowRestricted = !(p.single && p.bare)

	switch p.cur.peek() {
	case 'L':
		if !s.dowRestricted {
			return p.fail(name, "L requires a day of week")
		}
		p.cur.advance()
		s.flags.DayOfWeekLast = true
	case '#':
		if !s.dowRestricted {
			return p.fail(name, "# requires a day of week")
		}
		p.cur.advance()
		n, ok := p.number(nil, 0)
		if !ok || n < minNthDayOfWeek || n > maxNthDayOfWeek {
			return p.fail(name, "# must be followed by 1-5")
		}
		s.nthDayOfWeek = n
	}

	// Sunday is both 0 and 7.
	if hasBit(v, 0) || hasBit(v, 7) {
		v |= 1 | 1<<7
	}
	s.dayOfWeek = uint8(v)
	return p.separator(fieldDayOfWeek)
}

// separator consumes the blanks after a field. The last field must be
// followed by the end of input, every other field by at least one blank.
func (p *parser) separator(f field) error {
	skipped := p.cur.skipBlanks()
	if f == fieldDayOfWeek {
		if !p.cur.eof() {
			return p.fail(fieldExpression, "unexpected %q after last field", p.cur.s[p.cur.i:])
		}
		return nil
	}
	if p.cur.eof() {
		return p.fail(bounds[f].name, "unexpected end of expression")
	}
	if skipped == 0 {
		return p.fail(bounds[f].name, "unexpected character %q", p.cur.peek())
	}
	return nil
}

// list parses comma separated range items.
func (p *parser) list(f field) (uint64, error) {
	p.single = true
	var v uint64
	for {
		if err := p.rangeItem(f, &v); err != nil {
			return 0, err
		}
		if p.cur.peek() != ',' {
			break
		}
		p.single = false
		p.cur.advance()
	}
	if v == 0 && !(f == fieldDayOfMonth && p.s.flags.DayOfMonthLast) {
		return 0, p.fail(bounds[f].name, "no values")
	}
	return v, nil
}

func (p *parser) rangeItem(f field, v *uint64) error {
	b := bounds[f]
	p.plain, p.bare = false, false

	var num1, num2 int
	switch c := p.cur.peek(); {
	case c == '*':
		p.cur.advance()
		if p.cur.peek() != '/' {
			*v |= rangeMask(b.low, b.high)
			p.bare = true
			return nil
		}
		num1, num2 = b.low, b.high

	case c == '?':
		if f != fieldDayOfMonth && f != fieldDayOfWeek {
			return p.fail(b.name, "'?' is only allowed in day fields")
		}
		p.cur.advance()
		if p.cur.peek() == '/' {
			return p.fail(b.name, "'?' cannot take a step")
		}
		*v |= rangeMask(b.low, b.high)
		p.bare = true
		return nil

	case c == 'L' && f == fieldDayOfMonth:
		p.cur.advance()
		if p.s.flags.DayOfMonthLast {
			return p.fail(b.name, "L given twice")
		}
		offset := 0
		if p.cur.peek() == '-' {
			p.cur.advance()
			n, ok := p.number(nil, 0)
			if !ok || n > maxLastDayOffset {
				return p.fail(b.name, "L- must be followed by 0-%d", maxLastDayOffset)
			}
			offset = n
		}
		p.s.flags.DayOfMonthLast = true
		p.s.lastDayOffset = offset
		p.plain = true
		return nil

	default:
		start := p.cur.i
		n, ok := p.number(b.names, b.low)
		if !ok || n < b.low || n > b.high {
			return p.fail(b.name, "bad value at %q", p.restFrom(start))
		}
		num1 = n
		switch p.cur.peek() {
		case '-':
			p.cur.advance()
			start := p.cur.i
			n, ok := p.number(b.names, b.low)
			if !ok || n < b.low || n > b.high {
				return p.fail(b.name, "bad range end at %q", p.restFrom(start))
			}
			num2 = n
		case '/':
			num2 = b.high
		default:
			*v |= uint64(1) << uint(num1)
			p.plain = true
			return nil
		}
	}

	step := 1
	if p.cur.peek() == '/' {
		p.cur.advance()
		n, ok := p.number(nil, 0)
		if !ok || n <= 0 || n > b.high {
			return p.fail(b.name, "step must be 1-%d", b.high)
		}
		step = n
	}

	ringHigh := b.high
	if f == fieldDayOfWeek {
		// 7 is Sunday again; a range starting there starts at 0.
		if num1 == 7 {
			num1 = 0
		}
		ringHigh = 6
	}
	*v |= spread(num1, num2, step, b.low, ringHigh)
	return nil
}

// number reads a one or two digit number, or a three letter name when names is
// not nil. Names resolve to their index plus low.
func (p *parser) number(names []string, low int) (int, bool) {
	c := &p.cur
	if isDigit(c.peek()) {
		n := int(c.peek() - '0')
		c.advance()
		if isDigit(c.peek()) {
			n = n*10 + int(c.peek()-'0')
			c.advance()
		}
		if isDigit(c.peek()) {
			return 0, false
		}
		return n, true
	}
	if names == nil || c.i+3 > len(c.s) {
		return 0, false
	}
	word := c.s[c.i : c.i+3]
	for i := 0; i < 3; i++ {
		if !isLetter(word[i]) {
			return 0, false
		}
	}
	if c.i+3 < len(c.s) && isLetter(c.s[c.i+3]) {
		return 0, false
	}
	word = strings.ToUpper(word)
	for i, name := range names {
		if name == word {
			c.i += 3
			return i + low, true
		}
	}
	return 0, false
}

func (p *parser) restFrom(i int) string { return p.cur.s[i:] }

func countFields(s string) int {
	n := 0
	inField := false
	for i := 0; i < len(s); i++ {
		if isBlank(s[i]) {
			inField = false
			continue
		}
		if !inField {
			n++
			inField = true
		}
	}
	return n
}

func isBlank(c byte) bool  { return c == ' ' || c == '\t' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

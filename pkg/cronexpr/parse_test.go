package cronexpr

import (
	"errors"
	"reflect"
	"testing"
)

func bitsOf(values ...int) uint64 {
	var v uint64
	for _, i := range values {
		v |= uint64(1) << uint(i)
	}
	return v
}

func bitsRange(low, high int) []int {
	out := make([]int, 0, high-low+1)
	for i := low; i <= high; i++ {
		out = append(out, i)
	}
	return out
}

func TestParseFieldBits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		expr   string
		second uint64
		minute uint64
		hour   uint64
		dom    uint64
		month  uint64
		dow    uint64
	}{
		{
			name:   "five fields default second",
			expr:   "0 0 1 1 *",
			second: bitsOf(0), minute: bitsOf(0), hour: bitsOf(0), dom: bitsOf(1), month: bitsOf(1),
			dow: rangeMask(0, 7),
		},
		{
			name:   "wildcards stay inside bounds",
			expr:   "* * * * * *",
			second: rangeMask(0, 59), minute: rangeMask(0, 59), hour: rangeMask(0, 23),
			dom: rangeMask(1, 31), month: rangeMask(1, 12), dow: rangeMask(0, 7),
		},
		{
			name:   "steps",
			expr:   "*/20 5/15 */6 1-10/3 */4 *",
			second: bitsOf(0, 20, 40), minute: bitsOf(5, 20, 35, 50), hour: bitsOf(0, 6, 12, 18),
			dom: bitsOf(1, 4, 7, 10), month: bitsOf(1, 5, 9), dow: rangeMask(0, 7),
		},
		{
			name:   "wraparound minutes",
			expr:   "50-10 * * * *",
			second: bitsOf(0), minute: bitsOf(append(bitsRange(50, 59), bitsRange(0, 10)...)...),
			hour: rangeMask(0, 23), dom: rangeMask(1, 31), month: rangeMask(1, 12), dow: rangeMask(0, 7),
		},
		{
			name:   "wraparound with step",
			expr:   "55-10/2 22-2 28-3 NOV-FEB *",
			second: bitsOf(0), minute: bitsOf(55, 57, 59, 1, 3, 5, 7, 9),
			hour: bitsOf(22, 23, 0, 1, 2), dom: bitsOf(28, 29, 30, 31, 1, 2, 3),
			month: bitsOf(11, 12, 1, 2), dow: rangeMask(0, 7),
		},
		{
			name:   "day of week wraparound counts sunday once",
			expr:   "0 0 * * FRI-MON",
			second: bitsOf(0), minute: bitsOf(0), hour: bitsOf(0), dom: rangeMask(1, 31), month: rangeMask(1, 12),
			dow: bitsOf(5, 6, 0, 1, 7),
		},
		{
			name:   "day of week range from seven",
			expr:   "0 0 * * 7-2",
			second: bitsOf(0), minute: bitsOf(0), hour: bitsOf(0), dom: rangeMask(1, 31), month: rangeMask(1, 12),
			dow: bitsOf(0, 1, 2, 7),
		},
		{
			name:   "sunday as seven",
			expr:   "0 0 * * 7",
			second: bitsOf(0), minute: bitsOf(0), hour: bitsOf(0), dom: rangeMask(1, 31), month: rangeMask(1, 12),
			dow: bitsOf(0, 7),
		},
		{
			name:   "names are case insensitive",
			expr:   "0 0 ? jan,Jul mon-wed",
			second: bitsOf(0), minute: bitsOf(0), hour: bitsOf(0), dom: rangeMask(1, 31), month: bitsOf(1, 7),
			dow: bitsOf(1, 2, 3),
		},
		{
			name:   "lists mix items",
			expr:   "0 1,2,10-12 0 1 * *",
			second: bitsOf(0), minute: bitsOf(1, 2, 10, 11, 12), hour: bitsOf(0), dom: bitsOf(1), month: rangeMask(1, 12),
			dow: rangeMask(0, 7),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.expr, err)
			}
			got := []uint64{s.second, s.minute, uint64(s.hour), uint64(s.dayOfMonth), uint64(s.month), uint64(s.dayOfWeek)}
			want := []uint64{tt.second, tt.minute, tt.hour, tt.dom, tt.month, tt.dow}
			names := []string{"second", "minute", "hour", "day of month", "month", "day of week"}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("%s bits = %b, want %b", names[i], got[i], want[i])
				}
			}
		})
	}
}

func TestParseModifiers(t *testing.T) {
	t.Parallel()

	s := MustParse("0 0 L * *")
	if !s.Flags().DayOfMonthLast || s.lastDayOffset != 0 || s.dayOfMonth != 0 {
		t.Fatalf("L: flags=%+v offset=%d bits=%b", s.Flags(), s.lastDayOffset, s.dayOfMonth)
	}

	s = MustParse("0 0 L-3 * *")
	if !s.Flags().DayOfMonthLast || s.lastDayOffset != 3 {
		t.Fatalf("L-3: offset = %d", s.lastDayOffset)
	}

	s = MustParse("0 0 LW * *")
	if !s.Flags().DayOfMonthLast || !s.Flags().NearestWeekday {
		t.Fatalf("LW: flags = %+v", s.Flags())
	}

	s = MustParse("0 0 15W * *")
	if !s.Flags().NearestWeekday || s.dayOfMonth != uint32(bitsOf(15)) {
		t.Fatalf("15W: flags=%+v bits=%b", s.Flags(), s.dayOfMonth)
	}

	s = MustParse("0 0 * * MON#1")
	if s.NthDayOfWeek() != 1 || s.dayOfWeek != uint8(bitsOf(1)) {
		t.Fatalf("MON#1: nth=%d bits=%b", s.NthDayOfWeek(), s.dayOfWeek)
	}

	s = MustParse("0 0 * * 5L")
	if !s.Flags().DayOfWeekLast {
		t.Fatalf("5L: flags = %+v", s.Flags())
	}

	s = MustParse("0 0 1,L * *")
	if !s.Flags().DayOfMonthLast || s.dayOfMonth != uint32(bitsOf(1)) {
		t.Fatalf("1,L: flags=%+v bits=%b", s.Flags(), s.dayOfMonth)
	}
}

func TestParseFlagsAndInterval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr     string
		interval bool
		domRes   bool
		dowRes   bool
		star     [3]bool
	}{
		{expr: "*/15 * * * *", interval: true, domRes: false, dowRes: false, star: [3]bool{false, true, true}},
		{expr: "* * * * * *", interval: true, star: [3]bool{true, true, true}},
		{expr: "0 */15 * * * *", interval: false, star: [3]bool{false, true, true}},
		{expr: "0 * * * *", interval: false, star: [3]bool{false, false, true}},
		{expr: "30 2 * * *", interval: false},
		{expr: "0 0 1,15 * SUN", domRes: true, dowRes: true},
		{expr: "0 0 */2 * SUN", domRes: true, dowRes: true},
		{expr: "0 0 ? * SUN", domRes: false, dowRes: true},
		{expr: "0 0 1 * ?", domRes: true, dowRes: false},
	}
	for _, tt := range tests {
		s, err := Parse(tt.expr)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.expr, err)
		}
		if s.Interval() != tt.interval {
			t.Fatalf("%q: Interval() = %v, want %v", tt.expr, s.Interval(), tt.interval)
		}
		if s.domRestricted != tt.domRes || s.dowRestricted != tt.dowRes {
			t.Fatalf("%q: restricted dom=%v dow=%v, want %v %v", tt.expr, s.domRestricted, s.dowRestricted, tt.domRes, tt.dowRes)
		}
		f := s.Flags()
		if got := [3]bool{f.SecondStar, f.MinuteStar, f.HourStar}; got != tt.star {
			t.Fatalf("%q: star flags = %v, want %v", tt.expr, got, tt.star)
		}
	}
}

func TestParseWhitespace(t *testing.T) {
	t.Parallel()
	for _, expr := range []string{
		"0 0 * * *",
		"  0 0 * * *  ",
		"0\t0\t*\t*\t*",
		"0  \t 0 *   * *\t",
	} {
		s, err := Parse(expr)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", expr, err)
		}
		if s.Fields() != 5 || s.String() != expr {
			t.Fatalf("Parse(%q): fields=%d string=%q", expr, s.Fields(), s.String())
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()
	for _, expr := range []string{"*/7 3-50/4 1,5 L-2 */3 *", "0 0 15W * *", "0 30 9 ? * MON-FRI", "0 0 * * 5L", "0 0 * * TUE#3"} {
		a := MustParse(expr)
		b := MustParse(expr)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("Parse(%q) not deterministic: %+v vs %+v", expr, a, b)
		}
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr  string
		field string
	}{
		{"", "expression"},
		{"   \t ", "expression"},
		{"* * * *", "expression"},
		{"* * * * * * *", "expression"},
		{"60 * * * *", "minute"},
		{"60 * * * * *", "second"},
		{"100 * * * *", "minute"},
		{"* 24 * * *", "hour"},
		{"* * 0 * *", "day of month"},
		{"* * 32 * *", "day of month"},
		{"* * * 13 *", "month"},
		{"* * * 0 *", "month"},
		{"* * * * 8", "day of week"},
		{"* * ? * ?", "day of week"},
		{"? * * * *", "minute"},
		{"* * * ? *", "month"},
		{"* * ?/2 * *", "day of month"},
		{"*/0 * * * *", "minute"},
		{"*/60 * * * *", "minute"},
		{"1-5/ * * * *", "minute"},
		{"5-70 * * * *", "minute"},
		{"5,,6 * * * *", "minute"},
		{"* * 1-5W * *", "day of month"},
		{"* * 1,2W * *", "day of month"},
		{"* * */2W * *", "day of month"},
		{"* * *W * *", "day of month"},
		{"* * L-31 * *", "day of month"},
		{"* * L,L-1 * *", "day of month"},
		{"* L * * *", "hour"},
		{"* * * JANUARY *", "month"},
		{"* * * * MON#6", "day of week"},
		{"* * * * MON#0", "day of week"},
		{"* * * * MON#", "day of week"},
		{"* * * * *#2", "day of week"},
		{"* * * * ?L", "day of week"},
		{"* * * * L", "day of week"},
		{"* * * * 5L#2", "expression"},
		{"* * * * *x", "expression"},
		{"* * * * MON extra", "month"},
		{"* * * XYZ *", "month"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.expr)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", tt.expr)
		}
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): error %v does not match ErrInvalid", tt.expr, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q): error %T is not *ParseError", tt.expr, err)
		}
		if pe.Field != tt.field || pe.Expr != tt.expr {
			t.Fatalf("Parse(%q): field=%q expr=%q, want field %q", tt.expr, pe.Field, pe.Expr, tt.field)
		}
	}
}

func TestParseErrorQuotesBadValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr   string
		reason string
	}{
		{"61 * * * *", `bad value at "61 * * * *"`},
		{"0 0 * * 8", `bad value at "8"`},
		{"* 24 * * *", `bad value at "24 * * *"`},
		{"5-70 * * * *", `bad range end at "70 * * * *"`},
		{"0 0 * * 1-9", `bad range end at "9"`},
	}
	for _, tt := range tests {
		_, err := Parse(tt.expr)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q): error %v is not *ParseError", tt.expr, err)
		}
		if pe.Reason != tt.reason {
			t.Fatalf("Parse(%q): reason %q, want %q", tt.expr, pe.Reason, tt.reason)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParse("not a cron")
}

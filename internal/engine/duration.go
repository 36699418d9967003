package engine

import (
	"strconv"
	"strings"
	"time"
)

// Duration is a calendar-aware interval in polars string syntax
// ("1d", "3h30m", "1mo", "-2w", "5i").
type Duration struct {
	Months   int64
	Weeks    int64
	Days     int64
	Nsecs    int64
	Negative bool
	// ParsedInt marks an index-count duration ("3i" or integer slots).
	ParsedInt bool
}

// DurationSlots is a duration of n index slots.
func DurationSlots(n int64) Duration {
	d := Duration{Nsecs: n, ParsedInt: true}
	if n < 0 {
		d.Nsecs, d.Negative = -n, true
	}
	return d
}

// ParseDuration parses polars duration strings.
func ParseDuration(s string) (Duration, error) {
	var d Duration
	in := strings.TrimSpace(s)
	if in == "" {
		return d, errorf(ErrInvalidOperation, "expected a duration string, got an empty string")
	}
	if in[0] == '-' {
		d.Negative = true
		in = in[1:]
	}
	for len(in) > 0 {
		i := 0
		for i < len(in) && in[i] >= '0' && in[i] <= '9' {
			i++
		}
		if i == 0 {
			return d, errorf(ErrInvalidOperation, "expected leading integer in the duration string %q", s)
		}
		n, err := strconv.ParseInt(in[:i], 10, 64)
		if err != nil {
			return d, wrapErr(ErrInvalidOperation, err, "duration %q", s)
		}
		in = in[i:]
		j := 0
		for j < len(in) && (in[j] < '0' || in[j] > '9') {
			j++
		}
		unit := in[:j]
		in = in[j:]
		switch unit {
		case "ns":
			d.Nsecs += n
		case "us", "μs":
			d.Nsecs += n * int64(time.Microsecond)
		case "ms":
			d.Nsecs += n * int64(time.Millisecond)
		case "s":
			d.Nsecs += n * int64(time.Second)
		case "m":
			d.Nsecs += n * int64(time.Minute)
		case "h":
			d.Nsecs += n * int64(time.Hour)
		case "d":
			d.Days += n
		case "w":
			d.Weeks += n
		case "mo":
			d.Months += n
		case "q":
			d.Months += 3 * n
		case "y":
			d.Months += 12 * n
		case "i":
			d.Nsecs += n
			d.ParsedInt = true
		case "":
			return d, errorf(ErrInvalidOperation, "expected a unit after %d in the duration string %q", n, s)
		default:
			return d, errorf(ErrInvalidOperation, "invalid unit %q in the duration string %q", unit, s)
		}
	}
	if d.ParsedInt && (d.Months != 0 || d.Weeks != 0 || d.Days != 0) {
		return d, errorf(ErrInvalidOperation, "duration %q mixes index and calendar units", s)
	}
	return d, nil
}

func (d Duration) IsZero() bool {
	return d.Months == 0 && d.Weeks == 0 && d.Days == 0 && d.Nsecs == 0
}

// Slots returns the signed number of index slots of an index duration.
func (d Duration) Slots() int64 {
	if d.Negative {
		return -d.Nsecs
	}
	return d.Nsecs
}

// fixed returns the duration in ticks of unit when it has no month component.
func (d Duration) fixed(unit TimeUnit) (int64, bool) {
	if d.Months != 0 {
		return 0, false
	}
	ns := d.Nsecs + (d.Days+7*d.Weeks)*int64(24*time.Hour)
	v := ns / (1_000_000_000 / unit.perSecond())
	if d.Negative {
		v = -v
	}
	return v, true
}

// addTo shifts the timestamp t (in unit ticks) by d.
func (d Duration) addTo(t int64, unit TimeUnit) int64 {
	if d.ParsedInt {
		return t + d.Slots()
	}
	sign := int64(1)
	if d.Negative {
		sign = -1
	}
	if d.Months != 0 {
		tm := timeOf(t, unit).AddDate(0, int(sign*d.Months), 0)
		t = ticksOf(tm, unit)
	}
	rest := d
	rest.Months = 0
	v, _ := rest.fixed(unit)
	return t + v
}

func (d Duration) String() string {
	var sb strings.Builder
	if d.Negative {
		sb.WriteByte('-')
	}
	if d.ParsedInt {
		sb.WriteString(strconv.FormatInt(d.Nsecs, 10) + "i")
		return sb.String()
	}
	if y := d.Months / 12; y > 0 {
		sb.WriteString(strconv.FormatInt(y, 10) + "y")
	}
	if mo := d.Months % 12; mo > 0 {
		sb.WriteString(strconv.FormatInt(mo, 10) + "mo")
	}
	if d.Weeks > 0 {
		sb.WriteString(strconv.FormatInt(d.Weeks, 10) + "w")
	}
	if d.Days > 0 {
		sb.WriteString(strconv.FormatInt(d.Days, 10) + "d")
	}
	if d.Nsecs > 0 || sb.Len() == 0 || (d.Negative && sb.Len() == 1) {
		sb.WriteString(strconv.FormatInt(d.Nsecs, 10) + "ns")
	}
	return sb.String()
}

func timeOf(t int64, unit TimeUnit) time.Time {
	per := unit.perSecond()
	sec := floorDiv(t, per)
	return time.Unix(sec, (t-sec*per)*(1_000_000_000/per)).UTC()
}

func ticksOf(tm time.Time, unit TimeUnit) int64 {
	switch unit {
	case Nanoseconds:
		return tm.UnixNano()
	case Microseconds:
		return tm.UnixMicro()
	}
	return tm.UnixMilli()
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDatetime(s string, unit TimeUnit) (int64, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return ticksOf(tm, unit), true
		}
	}
	return 0, false
}

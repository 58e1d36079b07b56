package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func spacePad(n int) string {
	if n < 10 {
		return " " + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// mondayWeek is the week of the year (00-53) counting the first Monday as
// the start of week 1.
func mondayWeek(t time.Time) int {
	days_since_monday := (int(t.Weekday()) + 6) % 7
	return (t.YearDay() - 1 + 7 - days_since_monday) / 7
}

// Strftime formats t with the directives %a %A %d %m %e %w %W %b %B %y %Y
// %H %k %M %S. Unknown directives are copied as is.
func Strftime(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'a':
			b.WriteString(t.Format("Mon"))
		case 'A':
			b.WriteString(t.Format("Monday"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'e':
			b.WriteString(spacePad(t.Day()))
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'W':
			b.WriteString(fmt.Sprintf("%02d", mondayWeek(t)))
		case 'b':
			b.WriteString(t.Format("Jan"))
		case 'B':
			b.WriteString(t.Format("January"))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'k':
			b.WriteString(spacePad(t.Hour()))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

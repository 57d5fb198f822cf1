package weather

import (
	"fmt"
	"time"
)

// weekdayNames is indexed like time.Weekday: 0 = Sunday.
var weekdayNames = [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}

// WeekdayName returns the two-letter German abbreviation for dow,
// where 0 is Sunday and 6 is Saturday.
func WeekdayName(dow int) (string, error) {
	if dow < 0 || dow >= len(weekdayNames) {
		return "", fmt.Errorf("%w: weekday index %d out of range [0,6]", ErrContractViolation, dow)
	}
	return weekdayNames[dow], nil
}

const dayKeyDateLayout = "02.01.2006"

// DayKey identifies a calendar day in the configured timezone.
type DayKey struct {
	Weekday string
	Date    string // dd.mm.yyyy
}

// String formats the key as "Mo, 02.01.2006".
func (k DayKey) String() string {
	return k.Weekday + ", " + k.Date
}

// NewDayKey places the unix timestamp ts on a calendar day in loc.
func NewDayKey(ts int64, loc *time.Location) (DayKey, error) {
	if loc == nil {
		return DayKey{}, fmt.Errorf("%w: no timezone given", ErrContractViolation)
	}
	t := time.Unix(ts, 0).In(loc)
	if y := t.Year(); y < 1 || y > 9999 {
		return DayKey{}, fmt.Errorf("%w: timestamp %d outside representable dates", ErrContractViolation, ts)
	}

	name, err := WeekdayName(int(t.Weekday()))
	if err != nil {
		return DayKey{}, err
	}
	return DayKey{Weekday: name, Date: t.Format(dayKeyDateLayout)}, nil
}

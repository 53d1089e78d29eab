package utils

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// IsBankHoliday checks if the given date is a national bank holiday.
func IsBankHoliday(t time.Time) bool {
	t = t.In(IST)
	dateStr := t.Format("2006-01-02")

	_, isHoliday := bankHolidays2026[dateStr]
	return isHoliday
}

// IsBusinessDay checks if banks process applications on the given date.
// Banks observe Sundays and the second and fourth Saturdays of each month.
func IsBusinessDay(t time.Time) bool {
	t = t.In(IST)
	if t.Weekday() == time.Sunday {
		return false
	}
	if t.Weekday() == time.Saturday {
		week := (t.Day()-1)/7 + 1
		if week == 2 || week == 4 {
			return false
		}
	}
	return !IsBankHoliday(t)
}

// NextBusinessDay returns the next bank working day after the given date.
func NextBusinessDay(from time.Time) time.Time {
	next := from.In(IST).AddDate(0, 0, 1)
	for !IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// BusinessDaysBetween returns the number of bank working days between two
// dates (exclusive of end).
func BusinessDaysBetween(start, end time.Time) int {
	start = start.In(IST)
	end = end.In(IST)
	count := 0
	current := start
	for current.Before(end) {
		if IsBusinessDay(current) {
			count++
		}
		current = current.AddDate(0, 0, 1)
	}
	return count
}

// PlanTargetDate returns the calendar date a recovery plan lands on, given
// its estimated duration in days from today.
func PlanTargetDate(days int) time.Time {
	return NowIST().AddDate(0, 0, days)
}

// National bank holidays for 2026 (update annually).
// Source: RBI holiday circular under the Negotiable Instruments Act.
var bankHolidays2026 = map[string]string{
	"2026-01-26": "Republic Day",
	"2026-02-17": "Mahashivratri",
	"2026-03-10": "Holi",
	"2026-03-30": "Id-ul-Fitr (Ramadan)",
	"2026-04-01": "Annual Bank Closing",
	"2026-04-02": "Ram Navami",
	"2026-04-03": "Good Friday",
	"2026-04-14": "Dr. Ambedkar Jayanti",
	"2026-05-01": "Maharashtra Day",
	"2026-05-25": "Buddha Purnima",
	"2026-06-05": "Id-ul-Zuha (Bakri Id)",
	"2026-07-06": "Muharram",
	"2026-08-15": "Independence Day",
	"2026-09-04": "Milad-un-Nabi",
	"2026-10-02": "Mahatma Gandhi Jayanti",
	"2026-10-20": "Dussehra",
	"2026-11-09": "Diwali (Laxmi Pujan)",
	"2026-11-10": "Diwali (Balipratipada)",
	"2026-11-30": "Guru Nanak Jayanti",
	"2026-12-25": "Christmas",
}

// GetBankHolidays returns all bank holidays for the current year.
func GetBankHolidays() map[string]string {
	return bankHolidays2026
}

// ParseDateIST parses a date string in "2006-01-02" format and returns it in IST.
func ParseDateIST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, IST)
}

// FormatDateIST formats a time.Time to "2006-01-02" in IST.
func FormatDateIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

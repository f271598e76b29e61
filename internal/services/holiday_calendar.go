package services

import (
	"fmt"
	"time"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// HolidaysFor returns the national holidays for the given country code and
// years. Pure lookup over static tables, no network, no mutable state.
// Unsupported country codes return ErrUnsupportedRegion; callers treat holiday
// augmentation as optional and degrade to a no-holiday model.
func HolidaysFor(countryCode string, years []int) ([]models.Holiday, error) {
	switch countryCode {
	case "KR":
		return koreanHolidays(years)
	case "US":
		return usHolidays(years), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedRegion, countryCode)
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Lunar holidays have no closed-form solar date; the observed dates are tabled
// per year. Years outside the table only lose the lunar entries.
var seollalDates = map[int]time.Time{
	2022: day(2022, time.February, 1),
	2023: day(2023, time.January, 22),
	2024: day(2024, time.February, 10),
	2025: day(2025, time.January, 29),
	2026: day(2026, time.February, 17),
	2027: day(2027, time.February, 7),
}

var buddhaBirthdayDates = map[int]time.Time{
	2022: day(2022, time.May, 8),
	2023: day(2023, time.May, 27),
	2024: day(2024, time.May, 15),
	2025: day(2025, time.May, 5),
	2026: day(2026, time.May, 24),
	2027: day(2027, time.May, 13),
}

var chuseokDates = map[int]time.Time{
	2022: day(2022, time.September, 10),
	2023: day(2023, time.September, 29),
	2024: day(2024, time.September, 17),
	2025: day(2025, time.October, 6),
	2026: day(2026, time.September, 25),
	2027: day(2027, time.September, 15),
}

func koreanHolidays(years []int) ([]models.Holiday, error) {
	var holidays []models.Holiday
	for _, year := range years {
		holidays = append(holidays,
			models.Holiday{Date: day(year, time.January, 1), Name: "New Year's Day"},
			models.Holiday{Date: day(year, time.March, 1), Name: "Independence Movement Day"},
			models.Holiday{Date: day(year, time.May, 5), Name: "Children's Day"},
			models.Holiday{Date: day(year, time.June, 6), Name: "Memorial Day"},
			models.Holiday{Date: day(year, time.August, 15), Name: "Liberation Day"},
			models.Holiday{Date: day(year, time.October, 3), Name: "National Foundation Day"},
			models.Holiday{Date: day(year, time.October, 9), Name: "Hangul Day"},
			models.Holiday{Date: day(year, time.December, 25), Name: "Christmas Day"},
		)

		// Seollal and Chuseok are multi-day observances; the window extends
		// their influence one day each side.
		if d, ok := seollalDates[year]; ok {
			holidays = append(holidays, models.Holiday{
				Date: d, Name: "Seollal", LowerWindow: -1, UpperWindow: 1,
			})
		}
		if d, ok := buddhaBirthdayDates[year]; ok {
			holidays = append(holidays, models.Holiday{Date: d, Name: "Buddha's Birthday"})
		}
		if d, ok := chuseokDates[year]; ok {
			holidays = append(holidays, models.Holiday{
				Date: d, Name: "Chuseok", LowerWindow: -1, UpperWindow: 1,
			})
		}
	}
	return holidays, nil
}

func usHolidays(years []int) []models.Holiday {
	var holidays []models.Holiday
	for _, year := range years {
		holidays = append(holidays,
			models.Holiday{Date: day(year, time.January, 1), Name: "New Year's Day"},
			models.Holiday{Date: day(year, time.July, 4), Name: "Independence Day"},
			models.Holiday{Date: nthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
			models.Holiday{Date: nthWeekday(year, time.November, time.Thursday, 4), Name: "Thanksgiving", UpperWindow: 1},
			models.Holiday{Date: lastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
			models.Holiday{Date: day(year, time.December, 25), Name: "Christmas Day"},
		)
	}
	return holidays
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := day(year, month, 1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, (n-1)*7)
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := day(year, month+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

package jobs

import (
	"fmt"
	"time"
)

// Schedule determines when a periodic job is due next.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(from time.Time) time.Time {
	return from.Add(s.every)
}

func (s intervalSchedule) String() string {
	return fmt.Sprintf("every %v", s.every)
}

type hourlySchedule struct {
	minute int
}

func (s hourlySchedule) Next(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.Add(time.Hour)
	}
	return next
}

func (s hourlySchedule) String() string {
	return fmt.Sprintf("hourly at :%02d", s.minute)
}

type dailySchedule struct {
	hour   int
	minute int
}

func (s dailySchedule) Next(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d", s.hour, s.minute)
}

type weeklySchedule struct {
	weekday time.Weekday
	hour    int
	minute  int
}

func (s weeklySchedule) Next(from time.Time) time.Time {
	days := (int(s.weekday) - int(from.Weekday()) + 7) % 7
	day := from.AddDate(0, 0, days)
	next := time.Date(day.Year(), day.Month(), day.Day(), s.hour, s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (s weeklySchedule) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", s.weekday, s.hour, s.minute)
}

// Every runs a job at a fixed interval. Intervals under a second are raised to one.
func Every(d time.Duration) Schedule {
	return intervalSchedule{every: max(d, time.Second)}
}

// Hourly runs a job at the top of every hour.
func Hourly() Schedule {
	return hourlySchedule{}
}

// HourlyAt runs a job every hour at the given minute.
func HourlyAt(minute int) Schedule {
	return hourlySchedule{minute: clamp(minute, 59)}
}

// Daily runs a job at midnight in the scheduler's location.
func Daily() Schedule {
	return dailySchedule{}
}

func DailyAt(hour, minute int) Schedule {
	return dailySchedule{hour: clamp(hour, 23), minute: clamp(minute, 59)}
}

func WeeklyOn(weekday time.Weekday, hour, minute int) Schedule {
	return weeklySchedule{weekday: weekday, hour: clamp(hour, 23), minute: clamp(minute, 59)}
}

func clamp(v, hi int) int {
	return min(max(v, 0), hi)
}

package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 3, hour, minute, 0, 0, time.UTC)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 2000, p.PriceCents)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, 24*time.Hour, p.TTL())
	assert.Equal(t, 21, p.QuietStartHour)
	assert.Equal(t, 30, p.QuietStartMinute)
	assert.Equal(t, 8, p.QuietEndHour)
}

func TestQuietHoursCrossingMidnight(t *testing.T) {
	p := DefaultPolicy() // 21:30 - 08:00

	assert.False(t, p.InQuietHours(at(21, 29)))
	assert.True(t, p.InQuietHours(at(21, 30)))
	assert.True(t, p.InQuietHours(at(23, 59)))
	assert.True(t, p.InQuietHours(at(0, 0)))
	assert.True(t, p.InQuietHours(at(7, 59)))
	assert.False(t, p.InQuietHours(at(8, 0)))
	assert.False(t, p.InQuietHours(at(12, 0)))
}

func TestQuietHoursSameDayWindow(t *testing.T) {
	p := DefaultPolicy()
	p.QuietStartHour, p.QuietStartMinute = 13, 0
	p.QuietEndHour, p.QuietEndMinute = 14, 0

	assert.False(t, p.InQuietHours(at(12, 59)))
	assert.True(t, p.InQuietHours(at(13, 0)))
	assert.True(t, p.InQuietHours(at(13, 30)))
	assert.False(t, p.InQuietHours(at(14, 0)))
}

func TestQuietHoursEmptyWindow(t *testing.T) {
	p := DefaultPolicy()
	p.QuietStartHour, p.QuietStartMinute = 9, 0
	p.QuietEndHour, p.QuietEndMinute = 9, 0

	assert.False(t, p.InQuietHours(at(9, 0)))
	assert.False(t, p.InQuietHours(at(21, 0)))
}

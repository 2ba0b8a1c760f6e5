// Package scheduler implements the SM-2 spaced repetition variant used to reschedule cards.
//
// Everything here is pure: the current calendar date is passed in by the caller.
package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/flashpair/backend/internal/models"
)

// Quality values a user can submit for a review
const (
	QualityBlackout          = 0 // Complete blackout
	QualityIncorrectFamiliar = 1 // Incorrect, but familiar
	QualityIncorrectEasy     = 2 // Incorrect, but easy to recall
	QualityCorrectDifficult  = 3 // Correct, but difficult
	QualityCorrectHesitation = 4 // Correct, with hesitation
	QualityPerfect           = 5 // Perfect response

	// PassThreshold is the lowest quality counted as a successful recall
	PassThreshold = QualityCorrectDifficult
)

// ValidateQuality returns models.ErrInvalidQuality if quality is outside [0, 5]
func ValidateQuality(quality int) error {
	if quality < QualityBlackout || quality > QualityPerfect {
		return fmt.Errorf("%w: got %d", models.ErrInvalidQuality, quality)
	}
	return nil
}

// ApplyReview returns the scheduling state that results from reviewing a card with the given quality on "today".
//
// Failed reviews (quality < 3) reset repetitions to 0 and interval to 1.
// Passed reviews increment repetitions; the interval is 1 day for the first repetition,
// 6 days for the second and round(previous interval * ease factor) afterwards.
// The ease factor is adjusted in both cases and never drops below 1.3.
// The next due date is today plus the new interval.
//
// The input state is never modified. LastReviewed is left untouched, the caller owns the clock.
func ApplyReview(state models.SchedulingState, quality int, today time.Time) (models.SchedulingState, error) {
	if err := ValidateQuality(quality); err != nil {
		return state, err
	}

	next := state
	if quality < PassThreshold {
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(state.Interval) * state.EaseFactor))
		}
		if next.Interval < 1 {
			next.Interval = 1
		}
	}

	next.EaseFactor = NextEaseFactor(state.EaseFactor, quality)
	next.NextDue = AddDays(Date(today), next.Interval)

	return next, nil
}

// NextEaseFactor applies the SM-2 ease factor formula, floored at models.MinEaseFactor
func NextEaseFactor(ease float64, quality int) float64 {
	q := float64(5 - quality)
	next := ease + (0.1 - q*(0.08+q*0.02))
	return math.Max(models.MinEaseFactor, next)
}

// Date truncates t to its calendar date, represented as midnight UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in the given location, represented as midnight UTC
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// AddDays moves a calendar date by the given number of days
func AddDays(date time.Time, days int) time.Time {
	return date.AddDate(0, 0, days)
}

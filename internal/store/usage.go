package store

import (
	"fmt"
	"math"
	"time"
)

type Usage struct {
	TranscriptionCount int     `json:"transcription_count"`
	AudioMinutes       float64 `json:"audio_minutes"`
}

type UsageLimits struct {
	Transcriptions int     `json:"transcriptions"`
	AudioMinutes   float64 `json:"audio_minutes"`
}

type UsageCheck struct {
	CanProcess   bool        `json:"can_process"`
	Current      Usage       `json:"current"`
	Proposed     Usage       `json:"proposed"`
	Max          UsageLimits `json:"max"`
	Subscription string      `json:"subscription"`
}

// Monthly ceilings by subscription tier.
var tierLimits = map[string]UsageLimits{
	"free":   {Transcriptions: 5, AudioMinutes: 30},
	"pro":    {Transcriptions: math.MaxInt32, AudioMinutes: 300},
	"active": {Transcriptions: math.MaxInt32, AudioMinutes: 1200},
}

// TrackUsage adds a day's metrics for a user, accumulating over repeat calls.
func (s *Store) TrackUsage(userID string, day time.Time, transcriptions int, audioMinutes float64) error {
	_, err := s.db.Exec(`
		INSERT INTO usage_metrics (user_id, day, transcription_count, audio_minutes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			transcription_count = transcription_count + excluded.transcription_count,
			audio_minutes = audio_minutes + excluded.audio_minutes`,
		userID, day.UTC().Format("2006-01-02"), transcriptions, audioMinutes)
	if err != nil {
		return fmt.Errorf("track usage: %w", err)
	}
	return nil
}

// CheckUsageLimits reports whether adding the proposed usage keeps the user
// within their tier's monthly ceilings. Unknown tiers get the free limits.
func (s *Store) CheckUsageLimits(userID, subscription string, add Usage) (UsageCheck, error) {
	limits, ok := tierLimits[subscription]
	if !ok {
		subscription = "free"
		limits = tierLimits["free"]
	}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	var current Usage
	row := s.db.QueryRow(`
		SELECT COALESCE(SUM(transcription_count), 0), COALESCE(SUM(audio_minutes), 0)
		FROM usage_metrics
		WHERE user_id = ? AND day >= ?`,
		userID, monthStart.Format("2006-01-02"))
	if err := row.Scan(&current.TranscriptionCount, &current.AudioMinutes); err != nil {
		return UsageCheck{}, fmt.Errorf("sum usage: %w", err)
	}

	proposed := Usage{
		TranscriptionCount: current.TranscriptionCount + add.TranscriptionCount,
		AudioMinutes:       current.AudioMinutes + add.AudioMinutes,
	}
	return UsageCheck{
		CanProcess: proposed.TranscriptionCount <= limits.Transcriptions &&
			proposed.AudioMinutes <= limits.AudioMinutes,
		Current:      current,
		Proposed:     proposed,
		Max:          limits,
		Subscription: subscription,
	}, nil
}

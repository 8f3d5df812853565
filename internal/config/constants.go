package config

import "time"

const (
	// Platform request timeout
	RequestTimeout = 30 * time.Second

	// Text generation timeout, covering a cold model load
	TextgenTimeout = 5 * time.Minute

	// Reward claims older than this may be taken over by another runner
	ClaimTTL = 5 * time.Minute

	// Steps never run more often than this
	MinStepInterval = 30 * time.Second

	// Runs shown by the status endpoint
	StatusRunsLimit = 20

	// Status server timeouts
	StatusReadTimeout  = 5 * time.Second
	StatusWriteTimeout = 10 * time.Second

	// Telegram limits
	MaxTelegramMessageLen = 4096
	TelegramSendTimeout   = 10 * time.Second
)

// Bot names accepted in BOT_NAME.
const (
	BotStreak     = "streak"
	BotHoliday    = "holiday"
	BotReferral   = "referral"
	BotLastWord   = "lastword"
	BotDilemma    = "dilemma"
	BotShoutout   = "shoutout"
	BotVocabulary = "vocabulary"
	BotStory      = "story"
)

var BotNames = []string{
	BotStreak, BotHoliday, BotReferral, BotLastWord,
	BotDilemma, BotShoutout, BotVocabulary, BotStory,
}

package domain

import "errors"

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrRewardNotFound   = errors.New("reward not found")
	ErrUnknownBot       = errors.New("unknown bot")
	ErrInvalidParams    = errors.New("invalid bot parameters")
	ErrScratchVersion   = errors.New("unsupported scratch version")
	ErrClaimHeld        = errors.New("reward claim held by another runner")
	ErrEmptyCatalogue   = errors.New("holiday catalogue is empty")
)

package moderation

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownProfile  = errors.New("unknown profile")
	ErrUnknownPreset   = errors.New("unknown corpus preset")
)

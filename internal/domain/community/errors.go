package community

import "errors"

var (
	ErrTierNotModerated = errors.New("subscription tier is pending moderation")
	ErrTierInactive     = errors.New("subscription tier is inactive")
)

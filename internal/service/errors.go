package service

import "errors"

var (
	ErrNotConfigured     = errors.New("service not configured")
	ErrSendInFlight      = errors.New("a message is already being sent")
	ErrConversationReset = errors.New("conversation was reset while the reply was in flight")
)

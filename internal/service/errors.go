package service

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUpstream             = errors.New("completion provider failure")
	ErrPersistence          = errors.New("persistence failure")
	ErrTurnInProgress       = errors.New("another turn is in progress for this conversation")
)

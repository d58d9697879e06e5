package chat

import "errors"

var (
	ErrContactsNotFound = errors.New("chat: contact list not found")
	ErrFriendNotFound   = errors.New("chat: friend not in contact list")
	ErrEmptyMessage     = errors.New("chat: message body is empty")
)

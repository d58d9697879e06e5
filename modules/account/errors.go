package account

import "errors"

var (
	ErrUserNotFound    = errors.New("account: user not found")
	ErrDuplicateEmail  = errors.New("account: email already registered")
	ErrPictureNotFound = errors.New("account: picture not found")
	ErrAddressIndex    = errors.New("account: address index out of range")
	ErrNothingToUpdate = errors.New("account: no fields to update")
)

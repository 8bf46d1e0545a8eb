package staff

import "errors"

var (
	ErrMissingReasonType = errors.New("edit reason type is required")
	ErrUnknownReasonType = errors.New("unknown edit reason type")
	ErrReasonTooShort    = errors.New("edit reason detail must be longer than 3 characters")
	ErrMissingID         = errors.New("record id is required")
)

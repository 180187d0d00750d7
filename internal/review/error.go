package review

import "errors"

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyFeedback  = errors.New("feedback message is empty")
	ErrCommentTooLong = errors.New("review comment is too long")
)

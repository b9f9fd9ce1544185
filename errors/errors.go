package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMessageNotFound  = fmt.Errorf("message not found")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrMissingRecipient = fmt.Errorf("admin message without recipient")
)

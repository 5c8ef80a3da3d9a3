package dispatch

import "errors"

var (
	ErrDirectory  = errors.New("dispatch: fetch directory")
	ErrConfig     = errors.New("dispatch: load config")
	ErrDatabase   = errors.New("dispatch: database failure")
	ErrImage      = errors.New("dispatch: fetch image")
	ErrRender     = errors.New("dispatch: render email")
	ErrSend       = errors.New("dispatch: send email")
	ErrImageEmpty = errors.New("dispatch: image is empty")
)

package domain

import "errors"

var (
	ErrBusy       = errors.New("another action is still in progress")
	ErrNotImage   = errors.New("please upload an image file")
	ErrNoUpload   = errors.New("please upload an image first")
	ErrNoResult   = errors.New("no result to download")
	ErrNoMediaURL = errors.New("no media URL in response")
	ErrStale      = errors.New("session was reset")
	ErrNotFound   = errors.New("not found")
)

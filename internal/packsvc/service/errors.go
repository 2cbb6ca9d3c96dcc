package service

import "errors"

var (
	ErrPackNotFound  = errors.New("pack not found")
	ErrBinNotFound   = errors.New("bin not found")
	ErrGameNotFound  = errors.New("game not found")
	ErrShiftNotFound = errors.New("shift not found")
)

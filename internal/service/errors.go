package service

import "errors"

// Таксономия ошибок сервисного слоя. Хендлеры отображают их в HTTP-статусы;
// текст ошибок хранилища наружу не отдаётся.
var (
	ErrNotFound           = errors.New("qr not found")
	ErrLocked             = errors.New("qr details are locked and cannot be updated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrValidation         = errors.New("validation failed")
	ErrRender             = errors.New("qr render failed")
)

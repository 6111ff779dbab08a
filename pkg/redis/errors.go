package redis

import "errors"

var (
	ErrEmptyConnectionURL   = errors.New("redis: empty connection URL")
	ErrInvalidConnectionURL = errors.New("redis: invalid connection URL")
	ErrRedisNotReady        = errors.New("redis: server not ready")
	ErrHealthcheckFailed    = errors.New("redis: healthcheck failed")
)

package task

import "errors"

var ErrWorkerQueueFull = errors.New("worker queue is full")

package task

import (
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/suite"
)

func TestRetryTestSuite(t *testing.T) {
	suite.Run(t, new(RetryTestSuite))
}

type RetryTestSuite struct {
	suite.Suite
}

func (s *RetryTestSuite) TestSucceedsAfterTransientFailures() {
	attempts := 0
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	s.NoError(err)
	s.Equal(3, attempts)
}

func (s *RetryTestSuite) TestPermanentErrorStopsRetrying() {
	permanent := errors.New("bad request")
	attempts := 0
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		WithOnError(func(err error) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return permanent
		})
	s.ErrorIs(err, permanent)
	s.Equal(1, attempts)
}

func (s *RetryTestSuite) TestGivesUpAfterMaxElapsedTime() {
	err := NewRetry().
		WithMaxElapsedTime(10 * time.Millisecond).
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			return errors.New("always failing")
		})
	s.Error(err)
}

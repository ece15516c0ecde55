package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeUnknownProfile, "no such profile")
	suite.Equal(ErrCodeUnknownProfile, err.Code)
	suite.Contains(err.Error(), "no such profile")
	suite.Contains(err.Error(), "[300]")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeGappedData, "%d gaps detected in %s", 3, "BTCUSDT")
	suite.Equal(ErrCodeGappedData, err.Code)
	suite.Contains(err.Error(), "3 gaps detected in BTCUSDT")
}

func (suite *ErrorTestSuite) TestWrap() {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeQueryFailed, "failed to load candles", cause)

	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Contains(err.Error(), "connection refused")
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapf() {
	cause := fmt.Errorf("disk full")
	err := Wrapf(ErrCodePersistenceFailed, cause, "failed to persist tick %d", 42)

	suite.Equal(ErrCodePersistenceFailed, err.Code)
	suite.Contains(err.Error(), "failed to persist tick 42")
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeDuplicateSequence, "seq 10 already inserted")
	suite.Equal(ErrCodeDuplicateSequence, GetCode(err))

	// Wrapped deeper in a plain error chain.
	wrapped := fmt.Errorf("tick failed: %w", err)
	suite.Equal(ErrCodeDuplicateSequence, GetCode(wrapped))

	// Non-coded error falls back to unknown.
	suite.Equal(ErrCodeUnknown, GetCode(fmt.Errorf("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeSessionFailed, "gapped data")
	suite.True(HasCode(err, ErrCodeSessionFailed))
	suite.False(HasCode(err, ErrCodeSessionTerminal))
}

/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package validation

import (
	"testing"

	"github.com/stretchr/testify/suite"

	gerrors "github.com/tochemey/gomq/errors"
)

type validationTestSuite struct {
	suite.Suite
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestValidation(t *testing.T) {
	suite.Run(t, new(validationTestSuite))
}

func (s *validationTestSuite) TestNewChain() {
	s.Run("new chain without option", func() {
		chain := New()
		s.Assert().NotNil(chain)
	})
	s.Run("new chain with options", func() {
		chain := New(FailFast())
		s.Assert().True(chain.failFast)
		chain2 := New(AllErrors())
		s.Assert().False(chain2.failFast)
	})
}

func (s *validationTestSuite) TestAddValidator() {
	chain := New()
	s.Assert().Empty(chain.validators)
	chain.AddValidator(NewBooleanValidator(true, ""))
	s.Assert().Len(chain.validators, 1)
}

func (s *validationTestSuite) TestValidate() {
	s.Run("with single validator", func() {
		err := New().AddValidator(NewMinValidator("hwm", -1, 0)).Validate()
		s.Assert().EqualError(err, "hwm=(-1) must be at least 0")
	})
	s.Run("with multiple validators and FailFast option", func() {
		err := New(FailFast()).
			AddValidator(NewMinValidator("hwm", -1, 0)).
			AddAssertion(false, "this is false").
			Validate()
		s.Assert().EqualError(err, "hwm=(-1) must be at least 0")
	})
	s.Run("with multiple validators and AllErrors option", func() {
		err := New(AllErrors()).
			AddValidator(NewMinValidator("hwm", -1, 0)).
			AddAssertion(false, "this is false").
			Validate()
		s.Assert().EqualError(err, "hwm=(-1) must be at least 0; this is false")
	})
	s.Run("validating twice does not accumulate", func() {
		chain := New().AddAssertion(false, "this is false")
		s.Assert().EqualError(chain.Validate(), "this is false")
		s.Assert().EqualError(chain.Validate(), "this is false")
	})
}

func (s *validationTestSuite) TestBooleanValidator() {
	s.Assert().NoError(NewBooleanValidator(true, "error message").Validate())
	s.Assert().EqualError(NewBooleanValidator(false, "error message").Validate(), "error message")
}

func (s *validationTestSuite) TestRangeValidator() {
	s.Assert().NoError(NewRangeValidator("threads", 4, 0, 64).Validate())
	s.Assert().NoError(NewRangeValidator("threads", 0, 0, 64).Validate())
	s.Assert().EqualError(NewRangeValidator("threads", 65, 0, 64).Validate(), "threads=(65) must be between 0 and 64")
	s.Assert().Error(NewRangeValidator[int64]("linger", -2, -1, 1000).Validate())
}

func (s *validationTestSuite) TestCheck() {
	s.Assert().NoError(Check(New().AddAssertion(true, "fine")))

	err := Check(NewMinValidator("backlog", -1, 0))
	s.Assert().ErrorIs(err, gerrors.ErrInvalidArgument)
	s.Assert().Contains(err.Error(), "backlog=(-1) must be at least 0")
}

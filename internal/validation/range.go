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
	"fmt"
)

// rangeValidator checks that a numeric setting lies within [min, max].
type rangeValidator[T ~int | ~int32 | ~int64] struct {
	name     string
	value    T
	min, max T
}

var _ Validator = (*rangeValidator[int])(nil)

// NewRangeValidator creates a validator failing when value is outside [min, max].
func NewRangeValidator[T ~int | ~int32 | ~int64](name string, value, min, max T) Validator {
	return &rangeValidator[T]{name: name, value: value, min: min, max: max}
}

// NewMinValidator creates a validator failing when value is below min.
func NewMinValidator[T ~int | ~int32 | ~int64](name string, value, min T) Validator {
	return &minValidator[T]{name: name, value: value, min: min}
}

// Validate implements Validator.
func (v *rangeValidator[T]) Validate() error {
	if v.value < v.min || v.value > v.max {
		return fmt.Errorf("%s=(%v) must be between %v and %v", v.name, v.value, v.min, v.max)
	}
	return nil
}

type minValidator[T ~int | ~int32 | ~int64] struct {
	name       string
	value, min T
}

// Validate implements Validator.
func (v *minValidator[T]) Validate() error {
	if v.value < v.min {
		return fmt.Errorf("%s=(%v) must be at least %v", v.name, v.value, v.min)
	}
	return nil
}

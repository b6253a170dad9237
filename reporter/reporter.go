// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reporter contains the diagnostic plumbing shared by the parser and
// the expander: positioned errors, pluggable reporting callbacks, and the
// handler that decides whether processing continues after an error.
package reporter

import (
	"sync"

	"github.com/bufbuild/macrocompile/token"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, parsing/expansion will abort with that error. If
// the reporter returns nil, processing will continue, allowing the engine to
// try to report as many errors as it can find.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. This is
// used for indicating non-error messages to the calling program for things
// that do not cause processing to fail but are considered bad practice.
// Though they are just warnings, the details are supplied to the reporter via
// an error type.
type WarningReporter func(ErrorWithPos)

// Reporter is a pair of error and warning callbacks.
type Reporter interface {
	Error(ErrorWithPos) error
	Warning(ErrorWithPos)
}

// NewReporter creates a reporter from the given callbacks. Either may be nil:
// a nil error callback fails on the first error, and a nil warning callback
// discards warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler wraps a Reporter with the bookkeeping that parse and expand
// operations need: whether any error was ever reported, and the sticky error
// that stops further work once the reporter asks for an abort.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a new Handler. If rep is nil, a default reporter is used
// that fails on the first reported error and ignores all warnings.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleErrorf reports an error created from the given position and format.
func (h *Handler) HandleErrorf(pos token.SourcePos, format string, args ...any) error {
	return h.HandleError(Errorf(pos, format, args...))
}

// HandleError reports the given error. If the handler has already aborted,
// the previous abort error is returned instead.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	if ewp, ok := err.(ErrorWithPos); ok {
		h.errsReported = true
		err = h.reporter.Error(ewp)
	}
	h.err = err
	return err
}

// HandleWarning reports the given warning at the given position.
func (h *Handler) HandleWarning(pos token.SourcePos, err error) {
	// no need for lock; warnings don't interact with mutable fields
	h.reporter.Warning(Error(pos, err))
}

// Error returns the error that should be the result of the overall operation:
// the abort error if there was one, ErrInvalidSource if errors were reported
// but all swallowed by the reporter, and nil otherwise.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the sticky abort error, if any.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

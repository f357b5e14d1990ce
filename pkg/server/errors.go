// pkg/server/errors.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/qbra/qbra/pkg/bra"
)

var (
	ErrEmptyJob         = errors.New("Job has no requests")
	ErrMethodNotAllowed = errors.New("Method not allowed")
	ErrUnknownFamily    = errors.New("Unknown facility family")
)

// requestErrors are failures caused by the request's contents.
var requestErrors = []error{
	bra.ErrCannotDeriveA,
	bra.ErrInvalidDirection,
	bra.ErrInvalidInput,
	bra.ErrNoAzimuth,
	bra.ErrNoRoute,
	bra.ErrUnknownFacility,
	ErrEmptyJob,
	ErrUnknownFamily,
}

// outcome classifies a build error for the qbra_builds_total metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, bra.ErrDegenerateGeometry):
		return OutcomeGeometry
	case errors.Is(err, bra.ErrInvalidInput):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// httpStatus returns the HTTP status code to report err with. Parameters
// that are individually valid but don't yield a geometry are
// unprocessable rather than malformed.
func httpStatus(err error) int {
	if errors.Is(err, bra.ErrDegenerateGeometry) {
		return http.StatusUnprocessableEntity
	}
	for _, e := range requestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

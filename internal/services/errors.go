// Package services holds the intake, flood-state and report business logic.
// This file centralizes the service-level error values so that handlers can
// map them to HTTP status codes consistently.
//
// Validation failures are *validation.Error values and pass through
// unchanged; repo.ErrTimeout and repo.ErrStorage are likewise returned as-is.
package services

import "errors"

// Card errors.
var (
	// ErrCardNotFound indicates that no card exists with the given id.
	ErrCardNotFound = errors.New("card not found")

	// ErrReportExists is returned when a report was already received for the
	// card and the submission is not an earthquake sub-submission.
	ErrReportExists = errors.New("report already received for card")

	// ErrImageForbidden is returned when an image is attached to a card that
	// has no report yet, or whose report already carries an image.
	ErrImageForbidden = errors.New("card report not received or image exists already")

	// ErrUnsupportedImage is returned when an upload's content type is not an
	// accepted image type.
	ErrUnsupportedImage = errors.New("unsupported image content type")
)

// Area errors.
var (
	// ErrAreaNotFound indicates that the referenced local area does not exist.
	ErrAreaNotFound = errors.New("area not found")
)

// Report errors.
var (
	// ErrReportNotFound indicates that no aggregated report has the given id.
	ErrReportNotFound = errors.New("report not found")
)

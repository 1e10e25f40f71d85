package store

import (
	"errors"
)

var (
	// ErrNotFound is returned when a referenced folder, file or page is
	// absent from the current listing.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidArgument is returned when a page operation is requested
	// on a file that is not a note document.
	ErrInvalidArgument = errors.New("store: invalid argument")

	// ErrPageOutOfRange is returned for a page index outside the
	// document's page count.
	ErrPageOutOfRange = errors.New("store: page out of range")

	// ErrMalformedDocument is returned when downloaded note bytes cannot
	// be parsed.
	ErrMalformedDocument = errors.New("store: malformed document")

	// ErrConversionFailed is returned when rendering a page produced no
	// readable output.
	ErrConversionFailed = errors.New("store: conversion failed")

	// ErrIntegrity is returned when a remote listing violates a data
	// invariant, such as a file and folder sharing an id.
	ErrIntegrity = errors.New("store: data integrity violation")
)

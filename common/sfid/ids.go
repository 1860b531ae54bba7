// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package sfid finds and repairs salesforce_id references to member
// organizations across the assertion, ORCID record, notification, user and
// member collections.
package sfid

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Validation errors. They are returned wrapped with the offending values;
// match them with errors.Is.
var (
	ErrMissingID        = errors.New("salesforce id is required")
	ErrTargetLength     = errors.New("target has the wrong length")
	ErrSameID           = errors.New("source and target member cannot be the same")
	ErrNoOwner          = errors.New("there is no organization owner")
	ErrMemberNotFound   = errors.New("member not found")
	ErrMemberExists     = errors.New("member already exists")
	ErrConflictingModes = errors.New("merge and force update cannot be combined")
)

// IsShort reports whether id is shorter than n code points.
func IsShort(id string, n int) bool {
	return utf8.RuneCountInString(id) < n
}

// Request names the organization whose references are moved and the one
// they are moved to.
type Request struct {
	Source string
	Target string

	// Merge deletes the source member once every reference is moved.
	Merge bool

	// ForceUpdate relabels the source member to the target instead.
	ForceUpdate bool
}

// NeedsOwner reports whether the request moves users between two members,
// which requires one of them to have an organization owner.
func (r Request) NeedsOwner() bool {
	return r.Merge || r.ForceUpdate
}

// Validate checks the identifiers without touching the database. idLength
// is the length of a well-formed identifier.
func (r Request) Validate(idLength int) error {
	if r.Source == "" || r.Target == "" {
		return errors.Wrapf(ErrMissingID, "source=%q target=%q", r.Source, r.Target)
	}
	if utf8.RuneCountInString(r.Target) != idLength {
		return errors.Wrapf(ErrTargetLength, "target should be %d characters: target=%s", idLength, r.Target)
	}
	if r.Source == r.Target {
		return errors.Wrapf(ErrSameID, "source=%s target=%s", r.Source, r.Target)
	}
	if r.Merge && r.ForceUpdate {
		return ErrConflictingModes
	}
	return nil
}

// Action names what happens to the source member.
func (r Request) Action() string {
	switch {
	case r.Merge:
		return "merge"
	case r.ForceUpdate:
		return "force update"
	}
	return "update"
}

package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no survey session is active for the user.
	ErrSessionNotFound = errors.New("survey session not found")
	// ErrWrongInstrument is returned when a submission targets an instrument
	// other than the active one.
	ErrWrongInstrument = errors.New("another instrument is active")
	// ErrInvalidCategory indicates the category token is out of range.
	ErrInvalidCategory = errors.New("unknown category")
	// ErrCategoryRanked indicates the category already has a rank this session.
	ErrCategoryRanked = errors.New("category already ranked")
	// ErrInvalidOption indicates the option token is not one of the fixed set.
	ErrInvalidOption = errors.New("unknown option")
	// ErrOptionUsed indicates the option already has a rank for this question.
	ErrOptionUsed = errors.New("option already used")
	// ErrStepLimit indicates the per-question rank sequence is exhausted.
	ErrStepLimit = errors.New("answer limit reached")
	// ErrInvalidAnswer indicates the answer is neither of the accepted tokens.
	ErrInvalidAnswer = errors.New("unknown answer")
	// ErrInstrumentIncomplete is returned when advancing past an instrument
	// whose completion predicate is still false.
	ErrInstrumentIncomplete = errors.New("instrument not complete")
	// ErrNothingToUndo is returned when the history log is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrDatasetNotFound indicates instrument content is missing from the
	// backing store; the bank falls back to its built-in set.
	ErrDatasetNotFound = errors.New("instrument dataset not found")
)

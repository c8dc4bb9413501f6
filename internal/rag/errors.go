package rag

import "errors"

// ErrEmptyQuestion is returned for blank questions before any network call.
var ErrEmptyQuestion = errors.New("question is empty")

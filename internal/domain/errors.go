package domain

import "errors"

// Extraction failure taxonomy. Only these two produce SkipRecords; everything
// softer (unknown severity, null date) is recorded inline on the output.
var (
	// ErrEmptyDocument means the file opened fine but contained no
	// extractable text at all.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrUnreadableDocument means the format or corruption prevented any
	// parse attempt from getting at the content.
	ErrUnreadableDocument = errors.New("document is unreadable")
)

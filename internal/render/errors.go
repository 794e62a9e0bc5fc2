package render

import "errors"

var (
	// ErrParse is returned when HTML cannot be parsed into a document.
	ErrParse = errors.New("failed to parse html")

	// ErrRender is returned when a parsed document cannot be converted
	// to Markdown.
	ErrRender = errors.New("failed to render markdown")
)

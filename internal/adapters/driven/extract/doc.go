// Package extract turns files on disk into plain text.
//
// A Registry dispatches on file extension to a Format. Files with no
// registered format, binary content, or no text at all yield placeholder
// text (see domain.PlaceholderText) rather than an error, so callers can
// record the document without indexing it.
package extract

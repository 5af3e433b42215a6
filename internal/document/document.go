// Package document loads hand-written content source files.
//
// A source file is a `---` delimited YAML metadata block followed by a free
// text body. Loading distinguishes a missing file from an unparseable one:
// callers synthesize defaults for the former and log-and-skip the latter.
package document

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"gopkg.in/yaml.v3"
)

// LoadStatus classifies the outcome of loading a source document.
type LoadStatus int

const (
	StatusFound LoadStatus = iota
	StatusNotFound
	StatusParseFailed
)

// ContentDocument is the parsed form of one source text file.
type ContentDocument struct {
	// Metadata holds the YAML block as an open string-keyed mapping.
	// Entity-specific coercion happens immediately after load, never deeper
	// in the pipeline.
	Metadata map[string]any
	// Body is the remaining free text, trimmed.
	Body string
	// Path is the source file the document was read from.
	Path string
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// metadata delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("metadata start delimiter found but closing delimiter is missing")

// Load reads and parses the document at path.
//
// A missing file reports StatusNotFound with a nil document. A file that
// exists but cannot be split or whose metadata is invalid YAML reports
// StatusParseFailed (logged here); callers treat that as not-found so one bad
// document never halts a build.
func Load(path string) (*ContentDocument, LoadStatus) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StatusNotFound
		}
		slog.Warn("Failed to read source document", logfields.Path(path), logfields.Error(err))
		return nil, StatusParseFailed
	}

	meta, body, err := split(raw)
	if err != nil {
		slog.Warn("Failed to split source document", logfields.Path(path), logfields.Error(err))
		return nil, StatusParseFailed
	}

	fields, err := parseMetadata(meta)
	if err != nil {
		slog.Warn("Failed to parse document metadata", logfields.Path(path), logfields.Error(err))
		return nil, StatusParseFailed
	}

	return &ContentDocument{
		Metadata: fields,
		Body:     strings.TrimSpace(string(body)),
		Path:     path,
	}, StatusFound
}

// split separates the YAML metadata block (`---` delimited) from the body.
//
// A document without a leading delimiter is all body with empty metadata.
func split(content []byte) (metadata []byte, body []byte, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}

	metaStart := len(open)
	if bytes.HasPrefix(content[metaStart:], open) {
		return []byte{}, content[metaStart+len(open):], nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[metaStart:], closeSeq)
	if idx < 0 {
		// Accept a closing delimiter at EOF without trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content[metaStart:], tail) {
			end := len(content) - len(tail)
			return content[metaStart : end+len(nl)], nil, nil
		}
		return nil, nil, ErrMissingClosingDelimiter
	}

	metaEnd := metaStart + idx + len(nl)
	bodyStart := metaStart + idx + len(closeSeq)
	return content[metaStart:metaEnd], content[bodyStart:], nil
}

// parseMetadata parses the raw YAML block (without delimiters) into a map.
func parseMetadata(metadata []byte) (map[string]any, error) {
	if len(metadata) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(metadata, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}

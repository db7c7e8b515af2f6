// Package mcp provides an MCP (Model Context Protocol) server adapter for ragdesk.
// It lets AI assistants ask questions against the indexed PDFs and pull the
// supporting passages.
package mcp

import "errors"

// ErrMissingPipeline is returned when the pipeline service is not provided.
var ErrMissingPipeline = errors.New("mcp: pipeline service is required")

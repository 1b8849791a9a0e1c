// Package server implements the MCP (Model Context Protocol) server for scanlab.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and
// exposes the same scans as the HTTP surface to MCP clients.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its dimensions and format
//   - list_profiles: Enumerate scan profiles
//   - scan_image: Detect, annotate and summarize an image
//   - render_detections: Annotate an image with caller-supplied detections
//   - crop_detection: Extract one detection box, optionally magnified
//
// Images are addressed by path and cached in memory for the lifetime of the
// process, so repeated scans of one file decode it once.
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000; the data field carries the underlying error string.
package server

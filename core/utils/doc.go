// Package utils provides loose type conversions for request payloads and
// query parameters, where numbers may arrive as JSON numbers or strings.
package utils

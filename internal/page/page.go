// Package page holds the static control page served on GET / and the fixed
// HTTP responses the lamp sends.
package page

import (
	_ "embed"
	"strconv"
)

//go:embed index.html
var index []byte

const (
	statusLine   = "HTTP/1.1 200 OK\r\n"
	commonHeader = statusLine + "Content-Type: text/html\r\nConnection: close\r\n"
)

// Content returns the page body as sent, including the trailing CRLF.
func Content() []byte {
	content := make([]byte, 0, len(index)+2)
	content = append(content, index...)
	return append(content, '\r', '\n')
}

// Header returns the response header for a body of contentLength bytes.
func Header(contentLength int) []byte {
	h := make([]byte, 0, len(commonHeader)+32)
	h = append(h, commonHeader...)
	h = append(h, "Content-Length: "...)
	h = strconv.AppendInt(h, int64(contentLength), 10)
	return append(h, "\r\n\r\n"...)
}

// Response returns the complete GET / response. The declared Content-Length
// always equals len(Content()).
func Response() []byte {
	content := Content()
	resp := Header(len(content))
	return append(resp, content...)
}

// EmptyResponse returns the 200 OK reply to a POST, with no body.
func EmptyResponse() []byte {
	return Header(0)
}

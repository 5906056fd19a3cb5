package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/klauspost/compress/gzip"
)

// compressionMinSize is the smallest body worth compressing. A busy station's
// arrival list is several KB of repetitive JSON; error bodies are not.
const compressionMinSize = 1024

// CompressionMiddleware gzips JSON responses for clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressionMinSize),
		gzhttp.CompressionLevel(gzip.DefaultCompression),
		gzhttp.ContentTypes([]string{"application/json"}),
	)
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrap(next)
}

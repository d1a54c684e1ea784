package ports

import (
	"context"
	"io"
)

// BlobStore puerto hacia el almacenamiento de archivos (S3 o equivalente).
type BlobStore interface {
	// Put sube body bajo key y devuelve la URL pública del objeto.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

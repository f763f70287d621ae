package store

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "ui-1/doc-9.pdf", ArtifactKey("ui-1", "doc-9", "pdf"))
}

func TestNotFound(t *testing.T) {
	err := notFound("k", minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = notFound("k", errors.New("connection refused"))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}

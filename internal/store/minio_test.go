package store

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestMapMinioError(t *testing.T) {
	require.NoError(t, mapMinioError(nil))
	require.ErrorIs(t, mapMinioError(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}), ErrNotFound)
	require.ErrorIs(t, mapMinioError(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}), ErrNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	require.Equal(t, denied, mapMinioError(denied))

	other := errors.New("connection reset")
	require.Equal(t, other, mapMinioError(other))
}

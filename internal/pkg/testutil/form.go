package testutil

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateMultipartBody builds a multipart request body with one file part and optional plain fields. It returns
// the body and its content type.
func CreateMultipartBody(t *testing.T, fileField, fileName string, fileContent []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)

		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipString(t *testing.T, input string) *bytes.Buffer {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	_, err := gzipWriter.Write([]byte(input))
	require.NoError(t, err)

	require.NoError(t, gzipWriter.Close())

	return &buf
}

func gunzipBytes(t *testing.T, input []byte) string {
	gzipReader, err := gzip.NewReader(bytes.NewReader(input))
	require.NoError(t, err)

	decompressed, err := io.ReadAll(gzipReader)
	require.NoError(t, err)

	require.NoError(t, gzipReader.Close())

	return string(decompressed)
}

func echoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)

		response.WriteHeader(http.StatusOK)

		_, err = response.Write(body)
		require.NoError(t, err)
	})
}

func TestUngzipRequestDecompressesTheBody(t *testing.T) {
	handler := UngzipRequest(echoHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/", gzipString(t, "hello clay tablet"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello clay tablet", rec.Body.String())
}

func TestUngzipRequestPassesPlainBodyThrough(t *testing.T) {
	handler := UngzipRequest(echoHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello clay tablet"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello clay tablet", rec.Body.String())
}

func TestUngzipRequestRejectsCorruptGzip(t *testing.T) {
	handler := UngzipRequest(echoHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("definitely not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGzipResponseCompressesWhenAccepted(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		response.WriteHeader(http.StatusOK)

		_, err := response.Write([]byte("royal grain shipment"))
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "royal grain shipment", gunzipBytes(t, rec.Body.Bytes()))
}

func TestGzipResponseSkipsWithoutAcceptEncoding(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		response.WriteHeader(http.StatusOK)

		_, err := response.Write([]byte("royal grain shipment"))
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "royal grain shipment", rec.Body.String())
}

package ragclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerForwardsQueryAndContext(t *testing.T) {
	var receivedRequest answerRequest
	fakeRAGServer := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		require.Equal(t, http.MethodPost, request.Method)
		require.Equal(t, "/answer", request.URL.Path)
		require.NoError(t, json.NewDecoder(request.Body).Decode(&receivedRequest))

		response.Header().Set("Content-Type", "application/json")
		_, err := response.Write([]byte(`{"answer":"The tablet describes a grain shipment."}`))
		require.NoError(t, err)
	}))
	defer fakeRAGServer.Close()

	theClient := New(fakeRAGServer.URL, time.Minute, time.Second)

	result, err := theClient.Answer(context.Background(), "What does the tablet say?", "Full tablet text")
	require.NoError(t, err)

	assert.Equal(t, "What does the tablet say?", receivedRequest.Query)
	assert.Equal(t, "Full tablet text", receivedRequest.Context)
	assert.JSONEq(t, `{"answer":"The tablet describes a grain shipment."}`, string(result))
}

func TestAnswerFailsOnErrorStatus(t *testing.T) {
	fakeRAGServer := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		http.Error(response, "model exploded", http.StatusInternalServerError)
	}))
	defer fakeRAGServer.Close()

	theClient := New(fakeRAGServer.URL, time.Minute, time.Second)

	_, err := theClient.Answer(context.Background(), "query", "context")
	assert.Error(t, err)
}

func TestAnswerFailsOnMalformedJSONReply(t *testing.T) {
	fakeRAGServer := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		_, err := response.Write([]byte("this is not json"))
		require.NoError(t, err)
	}))
	defer fakeRAGServer.Close()

	theClient := New(fakeRAGServer.URL, time.Minute, time.Second)

	_, err := theClient.Answer(context.Background(), "query", "context")
	assert.Error(t, err)
}

func TestAnswerFailsWhenServiceIsUnreachable(t *testing.T) {
	fakeRAGServer := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {}))
	fakeRAGServer.Close()

	theClient := New(fakeRAGServer.URL, time.Second, time.Second)

	_, err := theClient.Answer(context.Background(), "query", "context")
	assert.Error(t, err)
}

func TestIndexDocumentSendsFullTextAndChunkSize(t *testing.T) {
	var receivedRequest indexRequest
	fakeRAGServer := httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		require.Equal(t, http.MethodPost, request.Method)
		require.Equal(t, "/upload", request.URL.Path)
		require.NoError(t, json.NewDecoder(request.Body).Decode(&receivedRequest))
	}))
	defer fakeRAGServer.Close()

	theClient := New(fakeRAGServer.URL, time.Minute, time.Second)

	require.NoError(t, theClient.IndexDocument(context.Background(), "Full tablet text", 1024))

	assert.Equal(t, "Full tablet text", receivedRequest.FullText)
	assert.Equal(t, 1024, receivedRequest.ChunkSize)
}

package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/unlock", r.URL.Path)
		fmt.Fprintln(w, `{"message": "Door successfully unlocked"}`)
	}))
	defer server.Close()

	resp, err := request(server.URL + "/unlock")
	require.NoError(t, err)
	assert.Equal(t, "Door successfully unlocked", resp.Message)
}

func TestRequestNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := request(server.URL + "/unlock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

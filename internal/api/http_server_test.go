package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateRunStartsExecutionAndReportsStatus(t *testing.T) {
	store := NewRunStore()
	exec := NewExecutor(store)
	srv := httptest.NewServer(NewHTTPServer(store, exec).Handler())
	defer srv.Close()

	tracePath := writeSampleTrace(t)
	body, _ := json.Marshal(map[string]any{
		"trace_path":    tracePath,
		"scheduler":     "qfq",
		"channels":      1,
		"read_bw_mbps":  1,
		"write_bw_mbps": 1,
		"users":         2,
	})

	resp, err := http.Post(srv.URL+"/v1/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Run struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"run"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.Run.ID)

	final := waitForTerminal(t, store, created.Run.ID)
	assert.Equal(t, StatusCompleted, final.Status)

	getResp, err := http.Get(srv.URL + "/v1/runs/" + created.Run.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	resultsResp, err := http.Get(srv.URL + "/v1/runs/" + created.Run.ID + "/results")
	require.NoError(t, err)
	defer resultsResp.Body.Close()
	assert.Equal(t, http.StatusOK, resultsResp.StatusCode)
	assert.Equal(t, "text/csv", resultsResp.Header.Get("Content-Type"))
}

func TestHandleCreateRunRejectsMissingTracePath(t *testing.T) {
	store := NewRunStore()
	exec := NewExecutor(store)
	srv := httptest.NewServer(NewHTTPServer(store, exec).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/runs", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetRunNotFound(t *testing.T) {
	store := NewRunStore()
	exec := NewExecutor(store)
	srv := httptest.NewServer(NewHTTPServer(store, exec).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleListRuns(t *testing.T) {
	store := NewRunStore()
	exec := NewExecutor(store)
	srv := httptest.NewServer(NewHTTPServer(store, exec).Handler())
	defer srv.Close()

	for i := 0; i < 3; i++ {
		_, err := store.Create(defaultTestOptions(), fmt.Sprintf("trace-%d.csv", i))
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listed struct {
		Runs []map[string]any `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed.Runs, 3)
}

func TestHandleHealthz(t *testing.T) {
	store := NewRunStore()
	exec := NewExecutor(store)
	srv := httptest.NewServer(NewHTTPServer(store, exec).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

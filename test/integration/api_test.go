//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/api"
	"github.com/hitbot-agency/suno-downloader/internal/app"
	"github.com/hitbot-agency/suno-downloader/internal/domain"
	"github.com/hitbot-agency/suno-downloader/internal/infrastructure"
)

// fakeSource serves a fixed catalog of songs without a browser.
type fakeSource struct {
	songs     int
	blockCtx  bool
	fetchFail string
}

func (s *fakeSource) Enumerate(ctx context.Context, creds domain.SourceCredentials, targetCount int) ([]domain.Song, error) {
	if s.blockCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	songs := make([]domain.Song, 0, s.songs)
	for i := 1; i <= s.songs; i++ {
		songs = append(songs, domain.Song{
			ID:    fmt.Sprintf("song-%08d", i),
			Title: fmt.Sprintf("Track %d", i),
		})
	}
	return songs, nil
}

func (s *fakeSource) Fetch(ctx context.Context, song domain.Song) ([]byte, error) {
	if song.ID == s.fetchFail {
		return nil, fmt.Errorf("HTTP 404")
	}
	return []byte("audio-payload"), nil
}

func setupTestServer(t *testing.T, source domain.SongSource) (*httptest.Server, *infrastructure.SQLiteLedger) {
	t.Helper()

	ledger, err := infrastructure.NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	config := domain.DefaultConfig()
	config.Download.BaseDir = t.TempDir()
	config.Download.SongDelay = 0
	config.Download.MaxConcurrentJobs = 2

	log := zap.NewNop()
	controller := app.NewJobController(
		infrastructure.NewMemoryJobRegistry(),
		source,
		ledger,
		infrastructure.NewZipPackager(log),
		app.NewFetchPipeline(source, &config.Download, log),
		nil,
		config,
		log,
		func(jobID string) domain.ProgressReporter {
			return infrastructure.NewFileProgressReporter(config.Download.BaseDir, jobID)
		},
	)
	t.Cleanup(controller.Close)

	router := api.SetupRouter(controller, ledger, log)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, ledger
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func createSession(t *testing.T, serverURL, plan string) string {
	t.Helper()

	resp := postJSON(t, serverURL+"/api/v1/sessions", map[string]string{
		"plan":      plan,
		"reference": "test-payment",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	result := decodeBody(t, resp)
	token, _ := result["session_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func jobStatus(t *testing.T, serverURL, jobID string) map[string]interface{} {
	t.Helper()

	resp, err := http.Get(serverURL + "/api/v1/jobs/" + jobID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody(t, resp)
}

func waitForStatus(t *testing.T, serverURL, jobID, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return jobStatus(t, serverURL, jobID)["status"] == want
	}, 5*time.Second, 50*time.Millisecond)
}

func TestAPI_FullJobFlow(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 3})
	token := createSession(t, server.URL, domain.PlanQuick)

	resp := postJSON(t, server.URL+"/api/v1/jobs", map[string]interface{}{
		"session_token": token,
		"max_songs":     3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decodeBody(t, resp)

	jobID, _ := result["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, float64(3), result["max_songs"])

	waitForStatus(t, server.URL, jobID, "completed")

	status := jobStatus(t, server.URL, jobID)
	progress, _ := status["progress"].(map[string]interface{})
	require.NotNil(t, progress)
	assert.Equal(t, float64(3), progress["total_songs"])
	assert.Equal(t, float64(3), progress["downloaded"])
	assert.Equal(t, float64(0), progress["failed"])
	assert.NotEmpty(t, progress["zip_file_path"])

	// The archive is served as an attachment.
	archResp, err := http.Get(server.URL + "/api/v1/jobs/" + jobID + "/archive")
	require.NoError(t, err)
	defer archResp.Body.Close()
	assert.Equal(t, http.StatusOK, archResp.StatusCode)
	assert.Contains(t, archResp.Header.Get("Content-Disposition"), "suno_songs_"+jobID)

	// The session was debited for the fetched songs.
	validateResp := postJSON(t, server.URL+"/api/v1/sessions/validate", map[string]string{
		"session_token": token,
	})
	require.Equal(t, http.StatusOK, validateResp.StatusCode)
	validated := decodeBody(t, validateResp)
	session, _ := validated["session"].(map[string]interface{})
	require.NotNil(t, session)
	assert.Equal(t, float64(3), session["songs_used"])
	assert.Equal(t, float64(497), session["remaining"])
}

func TestAPI_StartJob_PartialFailuresStillComplete(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 3, fetchFail: "song-00000002"})
	token := createSession(t, server.URL, domain.PlanQuick)

	resp := postJSON(t, server.URL+"/api/v1/jobs", map[string]interface{}{
		"session_token": token,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	jobID, _ := decodeBody(t, resp)["job_id"].(string)

	waitForStatus(t, server.URL, jobID, "completed")

	progress, _ := jobStatus(t, server.URL, jobID)["progress"].(map[string]interface{})
	assert.Equal(t, float64(2), progress["downloaded"])
	assert.Equal(t, float64(1), progress["failed"])
}

func TestAPI_StartJob_InvalidSession(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1})

	resp := postJSON(t, server.URL+"/api/v1/jobs", map[string]interface{}{
		"session_token": "bogus-token",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_GetJob_NotFound(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1})

	resp, err := http.Get(server.URL + "/api/v1/jobs/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CancelCompletedJobConflicts(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1})
	token := createSession(t, server.URL, domain.PlanQuick)

	resp := postJSON(t, server.URL+"/api/v1/jobs", map[string]interface{}{
		"session_token": token,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	jobID, _ := decodeBody(t, resp)["job_id"].(string)

	waitForStatus(t, server.URL, jobID, "completed")

	cancelResp := postJSON(t, server.URL+"/api/v1/jobs/"+jobID+"/cancel", nil)
	defer cancelResp.Body.Close()
	assert.Equal(t, http.StatusConflict, cancelResp.StatusCode)
}

func TestAPI_ArchiveBeforeCompletionConflicts(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1, blockCtx: true})
	token := createSession(t, server.URL, domain.PlanQuick)

	resp := postJSON(t, server.URL+"/api/v1/jobs", map[string]interface{}{
		"session_token": token,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	jobID, _ := decodeBody(t, resp)["job_id"].(string)

	archResp, err := http.Get(server.URL + "/api/v1/jobs/" + jobID + "/archive")
	require.NoError(t, err)
	defer archResp.Body.Close()
	assert.Equal(t, http.StatusConflict, archResp.StatusCode)
}

func TestAPI_Plans(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1})

	resp, err := http.Get(server.URL + "/api/v1/plans")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	plans, _ := result["plans"].([]interface{})
	require.Len(t, plans, 2)
}

func TestAPI_Health(t *testing.T) {
	server, _ := setupTestServer(t, &fakeSource{songs: 1})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

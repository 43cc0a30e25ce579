package httpapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/powerhour/internal/archive"
	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/codec"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/library"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/metacache"
	"github.com/cesargomez89/powerhour/internal/mixer"
	"github.com/cesargomez89/powerhour/internal/mixes"
	"github.com/cesargomez89/powerhour/internal/playlists"
	"github.com/cesargomez89/powerhour/internal/scanner"
	"github.com/cesargomez89/powerhour/internal/store"
	"github.com/cesargomez89/powerhour/internal/tagging"
)

const testRate = 100

// stubDecoder renders a fixed-length mono ramp for any path.
type stubDecoder struct {
	duration float64
}

func (d *stubDecoder) Probe(path string) (audio.Info, error) {
	return audio.Info{Duration: d.duration, SampleRate: testRate, Channels: 1}, nil
}

func (d *stubDecoder) Decode(path string, sampleRate int) (*codec.Buffer, error) {
	length := int(d.duration * float64(sampleRate))
	buf := codec.NewBuffer(1, length, sampleRate)
	for i := 0; i < length; i++ {
		buf.Channels[0][i] = 0.5
	}
	return buf, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	root := t.TempDir()
	log := logger.Default()

	db, err := store.NewSQLiteDB(filepath.Join(root, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dec := &stubDecoder{duration: 180}
	sc := scanner.New(metacache.New(), tagging.NewTagReader(), log)
	scans := scanner.NewManager(sc, log)
	t.Cleanup(scans.Shutdown)

	clipStore := clips.NewStore(filepath.Join(root, "temp-clips"), filepath.Join(root, "clips"), log)
	mixStore := mixes.NewStore(filepath.Join(root, "mixes"), filepath.Join(root, "backups"), log)
	listStore := playlists.NewStore(filepath.Join(root, "playlists"), log)

	h := NewHandler(
		nil,
		db,
		library.NewService(db, 7, log),
		scans,
		tagging.NewTagReader(),
		nil,
		clips.NewEngine(dec, testRate, log),
		clipStore,
		mixer.NewRenderer(clipStore, dec, testRate, log),
		mixStore,
		listStore,
		archive.NewPackager(mixStore, clipStore, listStore, log),
		log,
	)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &payload)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func TestStartScanValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/scans", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", resp.StatusCode, body)
	}

	var errResp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if _, ok := errResp.Fields["path"]; !ok {
		t.Errorf("fields = %v, want a path error", errResp.Fields)
	}
}

func TestClipAndMixLifecycle(t *testing.T) {
	srv := newTestServer(t)

	extract := map[string]interface{}{
		"source_path": "/music/song.mp3",
		"source_name": "Song",
		"start":       10.0,
		"duration":    60.0,
	}
	resp, body := doJSON(t, srv, http.MethodPost, "/api/clips", extract)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("extract status = %d, body %s", resp.StatusCode, body)
	}
	var clip domain.Clip
	if err := json.Unmarshal(body, &clip); err != nil {
		t.Fatalf("unmarshal clip: %v", err)
	}
	if clip.Duration != 60 {
		t.Errorf("clip.Duration = %v, want 60", clip.Duration)
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/api/clips", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list clips status = %d", resp.StatusCode)
	}
	var clipList []domain.Clip
	if err := json.Unmarshal(body, &clipList); err != nil {
		t.Fatalf("unmarshal clip list: %v", err)
	}
	if len(clipList) != 1 || clipList[0].ID != clip.ID {
		t.Fatalf("clip list = %+v, want the extracted clip", clipList)
	}

	compose := map[string]interface{}{
		"name": "Test Mix",
		"clips": []domain.ClipRef{
			{ID: clip.ID, Name: clip.Name, Duration: clip.Duration},
		},
	}
	resp, body = doJSON(t, srv, http.MethodPost, "/api/mixes", compose)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("compose status = %d, body %s", resp.StatusCode, body)
	}
	var composed struct {
		Mix domain.Mix `json:"mix"`
	}
	if err := json.Unmarshal(body, &composed); err != nil {
		t.Fatalf("unmarshal compose response: %v", err)
	}
	if composed.Mix.Name != "Test Mix" || len(composed.Mix.Clips) != 1 {
		t.Fatalf("composed mix = %+v, want 1 clip named Test Mix", composed.Mix)
	}

	resp, _ = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/mixes/%s/audio", composed.Mix.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("mix audio status = %d, want 200", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/mixes/%s/name", composed.Mix.ID), map[string]string{"name": "Renamed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d, body %s", resp.StatusCode, body)
	}
	var renamed domain.Mix
	if err := json.Unmarshal(body, &renamed); err != nil {
		t.Fatalf("unmarshal renamed mix: %v", err)
	}
	if renamed.Name != "Renamed" {
		t.Errorf("renamed.Name = %q, want Renamed", renamed.Name)
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/mixes/"+composed.Mix.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv, http.MethodGet, "/api/mixes/"+composed.Mix.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted mix status = %d, want 404", resp.StatusCode)
	}
}

func TestExtractClipRejectsBadRange(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]interface{}
		wantS int
	}{
		{
			name:  "negative start",
			body:  map[string]interface{}{"source_path": "/m/s.mp3", "start": -1.0, "duration": 10.0},
			wantS: http.StatusBadRequest,
		},
		{
			name:  "zero duration",
			body:  map[string]interface{}{"source_path": "/m/s.mp3", "start": 0.0, "duration": 0.0},
			wantS: http.StatusBadRequest,
		},
		{
			name:  "start past end",
			body:  map[string]interface{}{"source_path": "/m/s.mp3", "start": 200.0, "duration": 10.0},
			wantS: http.StatusBadRequest,
		},
		{
			name:  "unsupported container",
			body:  map[string]interface{}{"source_path": "/m/s.wma", "start": 0.0, "duration": 10.0},
			wantS: http.StatusUnsupportedMediaType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, srv, http.MethodPost, "/api/clips", tt.body)
			if resp.StatusCode != tt.wantS {
				t.Errorf("status = %d, want %d, body %s", resp.StatusCode, tt.wantS, body)
			}
		})
	}
}

func TestInterstitialSetting(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, srv, http.MethodPut, "/api/settings/interstitial", map[string]string{"value": "/no/such/file.wav"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("set missing file status = %d, want 404", resp.StatusCode)
	}

	sound := filepath.Join(t.TempDir(), "drink.wav")
	writeWAV(t, sound)
	resp, _ = doJSON(t, srv, http.MethodPut, "/api/settings/interstitial", map[string]string{"value": sound})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set status = %d, want 204", resp.StatusCode)
	}

	resp, body := doJSON(t, srv, http.MethodGet, "/api/settings/interstitial", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal setting: %v", err)
	}
	if got["value"] != sound {
		t.Errorf("value = %q, want %q", got["value"], sound)
	}

	resp, _ = doJSON(t, srv, http.MethodPut, "/api/settings/interstitial", map[string]string{"value": ""})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", resp.StatusCode)
	}
	_, body = doJSON(t, srv, http.MethodGet, "/api/settings/interstitial", nil)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal setting: %v", err)
	}
	if got["value"] != "" {
		t.Errorf("value after clear = %q, want empty", got["value"])
	}
}

func TestPlaylistEndpoints(t *testing.T) {
	srv := newTestServer(t)

	save := map[string]interface{}{
		"name": "Warmup",
		"clips": []domain.ClipRef{
			{ID: "c1", Name: "One", Duration: 60},
		},
	}
	resp, body := doJSON(t, srv, http.MethodPost, "/api/playlists", save)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", resp.StatusCode, body)
	}
	var pl domain.Playlist
	if err := json.Unmarshal(body, &pl); err != nil {
		t.Fatalf("unmarshal playlist: %v", err)
	}
	if pl.ID == "" {
		t.Fatal("playlist id is empty")
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/api/playlists", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list []domain.Playlist
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Warmup" {
		t.Fatalf("list = %+v, want one playlist named Warmup", list)
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/playlists/"+pl.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv, http.MethodGet, "/api/playlists/"+pl.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", resp.StatusCode)
	}
}

func writeWAV(t *testing.T, path string) {
	t.Helper()
	buf := codec.NewBuffer(1, testRate, testRate)
	if err := os.WriteFile(path, codec.Encode(buf), 0644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
}

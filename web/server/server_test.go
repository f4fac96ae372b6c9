package server

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/pkg/scene"
)

const smallSceneFile = `{
  "name": "Tiny Ball",
  "description": "one sphere",
  "camera": {"lookFrom": [0, 0, 0], "lookAt": [0, 0, -1]},
  "render": {"width": 32, "height": 24, "samplesPerPixel": 2, "maxDepth": 3},
  "materials": {"m": {"type": "metal", "albedo": "silver", "fuzz": 0.2}},
  "spheres": [{"center": [0, 0, -1], "radius": 0.5, "material": "m"}]
}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny-ball.json"), []byte(smallSceneFile), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	s := NewServer(0, dir)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

type sseMessage struct {
	Event string
	Data  string
}

// readSSE reads every event until the server closes the stream
func readSSE(t *testing.T, body io.Reader) []sseMessage {
	t.Helper()
	var events []sseMessage
	var current sseMessage
	var data []string

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Event != "" {
				current.Data = strings.Join(data, "\n")
				events = append(events, current)
			}
			current, data = sseMessage{}, nil
		case strings.HasPrefix(line, "event: "):
			current.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read SSE stream: %v", err)
	}
	return events
}

func get(t *testing.T, ts *httptest.Server, path string, params url.Values) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path + "?" + params.Encode())
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts, "/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts, "/api/scenes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body scene.ScenesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(body.Groups) != 2 {
		t.Fatalf("Expected built-in and file groups, got %+v", body.Groups)
	}
	if body.Groups[0].Name != scene.BuiltinGroup || len(body.Groups[0].Scenes) != len(scene.Names()) {
		t.Errorf("Expected built-in group first with %d scenes, got %+v", len(scene.Names()), body.Groups[0])
	}
	fileScenes := body.Groups[1].Scenes
	if len(fileScenes) != 1 || fileScenes[0].ID != "file:tiny-ball" || fileScenes[0].DisplayName != "Tiny Ball" {
		t.Errorf("Expected the tiny-ball scene file, got %+v", fileScenes)
	}
}

func TestHandleRenderStreamsPasses(t *testing.T) {
	_, ts := newTestServer(t)

	params := url.Values{
		"scene":   {"single-sphere"},
		"width":   {"16"},
		"height":  {"16"},
		"samples": {"2"},
		"depth":   {"2"},
		"passes":  {"2"},
	}
	resp := get(t, ts, "/api/render", params)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	events := readSSE(t, resp.Body)
	var passes []PassUpdate
	for _, event := range events {
		switch event.Event {
		case "pass":
			var update PassUpdate
			if err := json.Unmarshal([]byte(event.Data), &update); err != nil {
				t.Fatalf("Invalid pass payload: %v", err)
			}
			passes = append(passes, update)
		case "error":
			t.Fatalf("Unexpected error event: %s", event.Data)
		}
	}

	if len(events) == 0 || events[len(events)-1].Event != "complete" {
		t.Fatalf("Expected the stream to end with a complete event, got %+v", events)
	}
	if len(passes) != 2 {
		t.Fatalf("Expected 2 pass events, got %d", len(passes))
	}

	for i, update := range passes {
		if update.PassNumber != i+1 {
			t.Errorf("Expected pass number %d, got %d", i+1, update.PassNumber)
		}
		if update.Stats.TotalPixels != 16*16 {
			t.Errorf("Expected 256 pixels, got %d", update.Stats.TotalPixels)
		}
		if update.PrimitiveCount != 2 {
			t.Errorf("Expected 2 primitives, got %d", update.PrimitiveCount)
		}
	}

	last := passes[len(passes)-1]
	if !last.IsLast || last.Stats.MinSamples != 2 {
		t.Errorf("Expected final pass with 2 samples per pixel, got %+v", last.Stats)
	}

	data, err := base64.StdEncoding.DecodeString(last.ImageData)
	if err != nil {
		t.Fatalf("Invalid base64 image: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("Expected 16x16 image, got %v", b)
	}
}

func TestHandleRenderErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		params url.Values
		substr string
	}{
		{"width too small", url.Values{"width": {"5"}}, "width must be between"},
		{"non-numeric samples", url.Values{"samples": {"many"}}, "invalid samples"},
		{"unknown scene", url.Values{"scene": {"cornell"}}, "unknown scene"},
		{"unknown scene file", url.Values{"scene": {"file:../secrets"}}, "unknown scene file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := readSSE(t, get(t, ts, "/api/render", tt.params).Body)
			if len(events) != 1 || events[0].Event != "error" {
				t.Fatalf("Expected a single error event, got %+v", events)
			}
			if !strings.Contains(events[0].Data, tt.substr) {
				t.Errorf("Expected error containing %q, got %q", tt.substr, events[0].Data)
			}
		})
	}
}

func TestHandleImage(t *testing.T) {
	_, ts := newTestServer(t)

	params := url.Values{
		"scene":   {"file:tiny-ball"},
		"samples": {"1"},
		"passes":  {"1"},
	}
	resp := get(t, ts, "/api/image", params)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	// Size comes from the scene file
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("Expected 32x24 image, got %v", b)
	}
}

func TestHandleImageThumbnail(t *testing.T) {
	_, ts := newTestServer(t)

	params := url.Values{
		"scene":     {"single-sphere"},
		"width":     {"32"},
		"height":    {"16"},
		"samples":   {"1"},
		"passes":    {"1"},
		"thumbnail": {"8"},
	}
	resp := get(t, ts, "/api/image", params)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("Expected 8x4 thumbnail, got %v", b)
	}
}

func TestHandleImageBadRequests(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		params url.Values
	}{
		{"height too large", url.Values{"height": {"5000"}}},
		{"zero passes", url.Values{"passes": {"0"}}},
		{"unsupported format", url.Values{"format": {"gif"}}},
		{"upload without uploader", url.Values{"upload": {"true"}}},
		{"unknown scene", url.Values{"scene": {"nope"}}},
		{"bad seed", url.Values{"seed": {"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, "/api/image", tt.params)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("Expected a JSON error body, got %v (%v)", body, err)
			}
		})
	}
}

// fakeS3 records uploaded objects
type fakeS3 struct {
	s3iface.S3API
	key         string
	contentType string
	size        int
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.key = aws.StringValue(input.Key)
	f.contentType = aws.StringValue(input.ContentType)
	f.size = len(body)
	return &s3.PutObjectOutput{}, nil
}

func TestHandleImageUpload(t *testing.T) {
	s, ts := newTestServer(t)
	fake := &fakeS3{}
	s.SetUploader(publish.NewUploaderWithClient(fake, "renders", "https://cdn.example.com", nil))

	params := url.Values{
		"scene":   {"single-sphere"},
		"width":   {"16"},
		"height":  {"16"},
		"samples": {"1"},
		"passes":  {"1"},
		"format":  {"jpg"},
		"upload":  {"true"},
	}
	resp := get(t, ts, "/api/image", params)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ct)
	}

	if !strings.HasPrefix(fake.key, "renders/single-sphere/render_") || !strings.HasSuffix(fake.key, ".jpg") {
		t.Errorf("Unexpected upload key %q", fake.key)
	}
	if fake.contentType != "image/jpeg" || fake.size == 0 {
		t.Errorf("Unexpected upload: content type %q, %d bytes", fake.contentType, fake.size)
	}
	if got := resp.Header.Get("X-Image-URL"); got != "https://cdn.example.com/"+fake.key {
		t.Errorf("Expected X-Image-URL for %s, got %q", fake.key, got)
	}
}

func TestHandleSceneConfig(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts, "/api/scene-config", url.Values{"scene": {"file:tiny-ball"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Scene    string         `json:"scene"`
		Defaults map[string]int `json:"defaults"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Defaults["width"] != 32 || body.Defaults["height"] != 24 || body.Defaults["samplesPerPixel"] != 2 || body.Defaults["maxDepth"] != 3 {
		t.Errorf("Expected the scene file's render settings, got %v", body.Defaults)
	}
	if body.Defaults["primitives"] != 1 {
		t.Errorf("Expected 1 primitive, got %d", body.Defaults["primitives"])
	}
}

func TestHandleInspect(t *testing.T) {
	_, ts := newTestServer(t)

	t.Run("center hits the sphere", func(t *testing.T) {
		params := url.Values{"scene": {"single-sphere"}, "x": {"200"}, "y": {"112"}}
		resp := get(t, ts, "/api/inspect", params)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var body InspectResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if !body.Hit || body.GeometryType != "sphere" || body.MaterialType != "lambertian" {
			t.Fatalf("Expected a lambertian sphere hit, got %+v", body)
		}
		if math.Abs(body.Distance-0.5) > 0.01 {
			t.Errorf("Expected distance ~0.5, got %f", body.Distance)
		}
		if !body.FrontFace {
			t.Error("Expected a front face hit")
		}
		geom := body.Properties["geometry"].(map[string]interface{})
		if geom["radius"].(float64) != 0.5 {
			t.Errorf("Expected radius 0.5, got %v", geom["radius"])
		}
	})

	t.Run("top corner sees the sky", func(t *testing.T) {
		params := url.Values{"scene": {"single-sphere"}, "x": {"0"}, "y": {"0"}}
		var body InspectResponse
		if err := json.NewDecoder(get(t, ts, "/api/inspect", params).Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Hit {
			t.Errorf("Expected no hit, got %+v", body)
		}
	})

	for name, params := range map[string]url.Values{
		"missing coordinates": {"scene": {"single-sphere"}},
		"out of bounds":       {"scene": {"single-sphere"}, "x": {"400"}, "y": {"0"}},
	} {
		t.Run(name, func(t *testing.T) {
			if resp := get(t, ts, "/api/inspect", params); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
		wantErr  bool
	}{
		{"missing uses default", "", 7, false},
		{"in range", "12", 12, false},
		{"lower bound", "1", 1, false},
		{"upper bound", "100", 100, false},
		{"below range", "0", 0, true},
		{"above range", "101", 0, true},
		{"not a number", "ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			if tt.value != "" {
				values.Set("n", tt.value)
			}
			got, err := parseIntParam(values, "n", 7, 1, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

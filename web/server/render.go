package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "pass", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// PassUpdate is the payload of a "pass" event
type PassUpdate struct {
	PassNumber     int    `json:"passNumber"`
	TotalPasses    int    `json:"totalPasses"`
	ImageData      string `json:"imageData"` // Base64 encoded PNG
	Stats          Stats  `json:"stats"`
	IsLast         bool   `json:"isLast"`
	ElapsedMs      int64  `json:"elapsedMs"`
	PrimitiveCount int    `json:"primitiveCount"`
}

// handleRender handles progressive rendering requests, streaming each pass via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	startTime := time.Now()
	raytracer := renderer.NewProgressiveRaytracer(sceneObj, progressiveConfig(req), webLogger)
	passChan, errChan := raytracer.RenderProgressive(ctx)

	renderErr := s.handleRenderingEvents(ctx, sseEventChan, passChan, errChan, sceneObj, req, startTime)

	// The renderer has stopped logging once its channels are closed
	close(consoleChan)
	<-consoleDone

	if renderErr != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", renderErr))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe).
// It returns when the channel is closed or the client disconnects.
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				// Client disconnected during write
				drain(sseEventChan)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}

		case <-ctx.Done():
			drain(sseEventChan)
			return
		}
	}
}

// writeSSEEvent formats one event. Multi-line data is split into several data fields.
func writeSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event.Type)
	for _, line := range strings.Split(event.Data, "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteString("\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// drain discards events until the channel is closed so senders never block
func drain(sseEventChan <-chan SSEEvent) {
	for range sseEventChan {
	}
}

// streamConsoleMessages forwards logger output to the SSE channel until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// handleRenderingEvents sends a "pass" event for every completed pass and returns the render error, if any
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, errChan <-chan error,
	sceneObj *scene.Scene, req *RenderRequest, startTime time.Time) error {

	for passResult := range passChan {
		s.handlePassComplete(ctx, sseEventChan, passResult, req, sceneObj, startTime)
	}

	err := <-errChan
	if err != nil && ctx.Err() != nil {
		// Client disconnected, nobody is listening for the error
		return nil
	}
	return err
}

// handlePassComplete encodes the pass image and sends it with the pass statistics
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, req *RenderRequest, sceneObj *scene.Scene, startTime time.Time) {
	// Check if client is still connected
	select {
	case <-ctx.Done():
		return
	default:
	}

	imageData, err := imageToBase64PNG(passResult.Image)
	if err != nil {
		log.Printf("Error encoding pass %d image: %v", passResult.PassNumber, err)
		return
	}

	update := PassUpdate{
		PassNumber:     passResult.PassNumber,
		TotalPasses:    req.Passes,
		ImageData:      imageData,
		Stats:          toStats(passResult.Stats),
		IsLast:         passResult.IsLast,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		PrimitiveCount: sceneObj.GetPrimitiveCount(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Error marshaling pass update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "pass", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// handleImage renders every pass and responds with the final image.
// With upload=true the encoded image is also published and its URL set in the X-Image-URL header.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	values := r.URL.Query()
	format := strings.ToLower(values.Get("format"))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "jpg" && format != "jpeg" {
		writeError(w, http.StatusBadRequest, "format must be png or jpg, got: "+format)
		return
	}
	thumbnail, err := parseIntParam(values, "thumbnail", 0, 1, maxImageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	upload := values.Get("upload") == "true"
	if upload && s.uploader == nil {
		writeError(w, http.StatusBadRequest, "uploads are not configured")
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raytracer := renderer.NewProgressiveRaytracer(sceneObj, progressiveConfig(req), log.Default())
	img, stats, err := raytracer.Render(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, output.Thumbnail(img, thumbnail), format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contentType := output.ContentType(format)

	if upload {
		key := fmt.Sprintf("renders/%s/render_%s.%s", sceneObj.Name, time.Now().Format("20060102_150405"), format)
		url, err := s.uploader.Upload(r.Context(), key, buf.Bytes(), contentType)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		w.Header().Set("X-Image-URL", url)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Samples", fmt.Sprintf("%d", stats.MinSamples))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write image: %v", err)
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/config"
	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/gallery/mock"
	"github.com/facemark/facemark/internal/imagestore"
	"github.com/facemark/facemark/internal/index"
	"github.com/facemark/facemark/internal/service"
)

// stubExtractor maps image bytes to fixed descriptors so handler tests can
// drive recognition outcomes without real images.
type stubExtractor struct {
	descriptors map[string][]float32
}

func (e *stubExtractor) Extract(imageData []byte) (*extract.Probe, error) {
	d, ok := e.descriptors[string(imageData)]
	if !ok {
		return nil, extract.ErrNoFace
	}
	return &extract.Probe{Descriptor: d}, nil
}

func (e *stubExtractor) Kind() gallery.DescriptorKind {
	return gallery.KindVector
}

var testFaces = map[string][]float32{
	"alice":    {1, 2, 3, 4},
	"stranger": {4, 3, 2, 1},
}

// testService builds a full service over the in-memory store.
func testService(t *testing.T) (*service.Service, *mock.Store) {
	t.Helper()

	store := mock.NewStore()
	images, err := imagestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("imagestore.New failed: %v", err)
	}

	logger := zap.NewNop()
	publisher := index.NewPublisher()
	builder := index.NewBuilder(store, index.ModeVector, logger)
	rebuilder := index.NewRebuilder(builder, publisher, logger)
	thresholds := config.ModeThresholds{Recognize: 0.55, Enroll: 0.70}

	svc := service.New(store, images, &stubExtractor{descriptors: testFaces},
		index.ModeVector, thresholds, publisher, rebuilder, logger)
	return svc, store
}

// enrollTestIdentity enrolls alice and publishes the index.
func enrollTestIdentity(t *testing.T, svc *service.Service) *gallery.Identity {
	t.Helper()
	identity, err := svc.Enroll(context.Background(), service.EnrollRequest{
		Name:   "Alice",
		RollNo: "101",
		Images: [][]byte{[]byte("alice")},
	})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := svc.RebuildNow(context.Background()); err != nil {
		t.Fatalf("RebuildNow failed: %v", err)
	}
	return identity
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// imageBody encodes probe bytes the way the kiosk frontend does.
func imageBody(image string) map[string]string {
	return map[string]string{
		"image": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(image)),
	}
}

// decodeResponse unmarshals a recorder body.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

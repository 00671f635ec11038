package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lirsacc/crible/internal/backend"
	"github.com/lirsacc/crible/internal/executor"
	"github.com/lirsacc/crible/internal/index"
	"github.com/lirsacc/crible/internal/logging"
)

func testServer(t *testing.T, idx *index.Index, readOnly bool) (http.Handler, *executor.Executor) {
	t.Helper()
	ex := executor.New(backend.NewMemory(), idx, executor.Options{Workers: 2, QueueSize: 4, ReadOnly: readOnly})
	t.Cleanup(ex.Close)
	log := logging.New(&bytes.Buffer{}, false)
	return New(ex, log), ex
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testIndex() *index.Index {
	return index.Of(map[string][]uint32{"a": {1, 2, 3}, "b": {2, 3, 4}})
}

func TestHandleQuery(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/query", map[string]interface{}{"query": "a and b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("x-request-id") == "" {
		t.Fatal("expected x-request-id header")
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	values, ok := body["values"].([]interface{})
	if !ok || len(values) != 2 {
		t.Fatalf("unexpected values: %v", body)
	}
}

func TestHandleQueryInvalidReturns400(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/query", map[string]interface{}{"query": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown property, got %d", rec.Code)
	}
}

func TestHandleCount(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/count", map[string]interface{}{"query": "a or b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "4" {
		t.Fatalf("expected 4, got %q", rec.Body.String())
	}
}

func TestHandleStats(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSetReturns200WhenChanged(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/set", map[string]interface{}{"property": "a", "bit": 99})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleSetReturns204WhenUnchanged(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	doJSON(t, h, http.MethodPost, "/set", map[string]interface{}{"property": "a", "bit": 99})
	rec := doJSON(t, h, http.MethodPost, "/set", map[string]interface{}{"property": "a", "bit": 99})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on a no-op set, got %d", rec.Code)
	}
}

func TestHandleSetRejectedWhenReadOnly(t *testing.T) {
	h, _ := testServer(t, testIndex(), true)
	rec := doJSON(t, h, http.MethodPost, "/set", map[string]interface{}{"property": "a", "bit": 99})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 in read-only mode, got %d", rec.Code)
	}
}

func TestHandleGetBit(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/get-bit", map[string]interface{}{"bit": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestHandleQueryBitmap(t *testing.T) {
	h, _ := testServer(t, testIndex(), false)
	rec := doJSON(t, h, http.MethodPost, "/query/bitmap", map[string]interface{}{"query": "a"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var encoded string
	if err := json.Unmarshal(rec.Body.Bytes(), &encoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if encoded == "" {
		t.Fatal("expected a non-empty base64 bitmap")
	}
}

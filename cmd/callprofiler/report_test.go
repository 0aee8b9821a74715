package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"

	"github.com/callprofiler/callprofiler/internal/event"
	"github.com/callprofiler/callprofiler/internal/storageprovider"
	"github.com/callprofiler/callprofiler/internal/storageutil"
	"github.com/callprofiler/callprofiler/internal/testutil"
)

var (
	fileBlobBucket *blob.Bucket
	testEnv        *environment
)

func TestMain(m *testing.M) {
	temporaryDirectory, err := os.MkdirTemp(os.TempDir(), "callprofiler-reports-*")
	if err != nil {
		log.Fatalf("couldn't create a temporary directory: %s", err.Error())
	}

	fileBlobBucket, err = blob.OpenBucket(context.Background(), "file://localhost/"+temporaryDirectory)
	if err != nil {
		log.Fatalf("couldn't open a local filesystem bucket: %s", err.Error())
	}

	testEnv = &environment{
		archive:       &storageprovider.Blob{Bucket: fileBlobBucket},
		archiveBucket: fileBlobBucket,
	}

	code := m.Run()

	if err := fileBlobBucket.Close(); err != nil {
		log.Printf("couldn't close the local filesystem bucket: %s", err.Error())
	}

	err = os.RemoveAll(temporaryDirectory)
	if err != nil {
		log.Printf("couldn't remove the temporary directory: %s", err.Error())
	}

	os.Exit(code)
}

func postTrace(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(body))
	w := httptest.NewRecorder()
	testEnv.postReport(w, req)
	return w
}

func TestPostReport(t *testing.T) {
	trace := event.Trace{
		Name: "checkout",
		Events: []event.Event{
			{Kind: event.Call, Function: "checkout", Path: "shop.py", Line: 4, TimestampNS: 0, Tag: event.LibraryTag{Kind: event.UserCode}},
			{Kind: event.Call, Function: "charge_card", Path: "billing.py", Line: 21, TimestampNS: 100, Tag: event.LibraryTag{Kind: event.UserCode}},
			{Kind: event.Return, Function: "charge_card", Path: "billing.py", Line: 21, TimestampNS: 900, Tag: event.LibraryTag{Kind: event.UserCode}},
			{Kind: event.Return, Function: "checkout", Path: "shop.py", Line: 4, TimestampNS: 1000, Tag: event.LibraryTag{Kind: event.UserCode}},
		},
	}
	body, err := json.Marshal(trace)
	if err != nil {
		t.Fatalf("we should be able to marshal the trace: %v", err)
	}

	w := postTrace(t, string(body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	doc, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatalf("we should be able to read the response: %v", err)
	}
	for _, want := range []string{
		"<title>callprofiler: checkout</title>",
		`<span class="func-name">charge_card</span>`,
	} {
		if !strings.Contains(string(doc), want) {
			t.Fatalf("document is missing %q", want)
		}
	}

	// The raw trace is archived under a fresh key for every request.
	ctx := context.Background()
	iter := fileBlobBucket.List(&blob.ListOptions{Prefix: "traces/checkout/"})
	obj, err := iter.Next(ctx)
	if err != nil {
		t.Fatalf("expected an archived trace: %v", err)
	}
	var archived event.Trace
	err = storageutil.UnmarshalCompressed(ctx, testEnv.archive, obj.Key, &archived)
	if err != nil {
		t.Fatalf("we should be able to read the archived trace: %v", err)
	}
	if diff := testutil.Diff(trace, archived); diff != "" {
		t.Fatalf("archived trace mismatch: %s", diff)
	}
}

func TestPostReportMalformedJSON(t *testing.T) {
	w := postTrace(t, "{")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPostReportMissingName(t *testing.T) {
	w := postTrace(t, `{"events": [{"kind": "call", "function": "f", "timestamp_ns": 0}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPostReportStructuralError(t *testing.T) {
	w := postTrace(t, `{
		"name": "broken",
		"events": [
			{"kind": "call", "function": "f", "path": "app.py", "line": 1, "timestamp_ns": 0},
			{"kind": "call", "function": "g", "path": "app.py", "line": 9, "timestamp_ns": 1}
		]
	}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "g (app.py:9)") {
		t.Fatalf("expected the offending frame to be named, got %q", body)
	}
}

func TestGetHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	testEnv.getHealth(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

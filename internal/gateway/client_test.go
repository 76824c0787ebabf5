package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL)
	// Retries would slow down the failure-path tests.
	client.httpClient = server.Client()
	return client, server
}

func TestPrepareUploadSuccess(t *testing.T) {
	var gotBody map[string]any
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/self/v1/prepare-upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"sessionId":"sess-9","files":{"f1":"tok1","f2":"tok2"}}}`))
	})
	defer server.Close()

	result, err := client.PrepareUpload(context.Background(), PrepareRequest{
		TargetFingerprint: "fp1",
		Files: map[string]FileMeta{
			"f1": {ID: "f1", FileURL: "file:///tmp/a"},
		},
		PIN: "1234",
	})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if result.SessionID != "sess-9" {
		t.Errorf("session = %q", result.SessionID)
	}
	if result.Tokens["f2"] != "tok2" {
		t.Errorf("tokens = %v", result.Tokens)
	}
	if result.NoTransferNeeded {
		t.Error("200 must not set NoTransferNeeded")
	}
	if gotBody["targetTo"] != "fp1" || gotBody["pin"] != "1234" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestPrepareUploadNoTransferNeeded(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	result, err := client.PrepareUpload(context.Background(), PrepareRequest{TargetFingerprint: "fp"})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if !result.NoTransferNeeded {
		t.Error("204 must set NoTransferNeeded")
	}
	if len(result.Tokens) != 0 || result.SessionID != "" {
		t.Error("204 must carry no session")
	}
}

func TestPrepareUploadPinRequired(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	_, err := client.PrepareUpload(context.Background(), PrepareRequest{TargetFingerprint: "fp"})
	if !IsAuthRequired(err) {
		t.Errorf("err = %v, want ErrAuthRequired", err)
	}
}

func TestPrepareUploadUnexpectedStatus(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"declined by receiver"}`))
	})
	defer server.Close()

	_, err := client.PrepareUpload(context.Background(), PrepareRequest{TargetFingerprint: "fp"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.Status != http.StatusForbidden || statusErr.Message != "declined by receiver" {
		t.Errorf("status error = %+v", statusErr)
	}
}

func TestUploadTextSendsRawBytes(t *testing.T) {
	var gotQuery map[string]string
	var gotBody []byte
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"sessionId": q.Get("sessionId"),
			"fileId":    q.Get("fileId"),
			"token":     q.Get("token"),
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	err := client.UploadText(context.Background(), "s1", "f1", "tok", []byte("hello there"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if gotQuery["sessionId"] != "s1" || gotQuery["fileId"] != "f1" || gotQuery["token"] != "tok" {
		t.Errorf("query = %v", gotQuery)
	}
	if string(gotBody) != "hello there" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestUploadBatchFullSuccessWithoutDetail(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"success":3,"failed":0}}`))
	})
	defer server.Close()

	result, err := client.UploadBatch(context.Background(), BatchRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if result.Partial {
		t.Error("200 must not be partial")
	}
	if result.HasDetail {
		t.Error("absent results array must report HasDetail=false")
	}
	if result.SuccessCount != 3 {
		t.Errorf("success = %d", result.SuccessCount)
	}
}

func TestUploadBatchPartialWithDetail(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(`{"result":{"success":1,"failed":1,"results":[
			{"fileId":"f1","success":true},
			{"fileId":"f2","success":false,"error":"disk full"}]}}`))
	})
	defer server.Close()

	result, err := client.UploadBatch(context.Background(), BatchRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if !result.Partial || !result.HasDetail {
		t.Errorf("partial=%v hasDetail=%v, want both true", result.Partial, result.HasDetail)
	}
	if len(result.PerItem) != 2 || result.PerItem[1].Error != "disk full" {
		t.Errorf("per-item = %+v", result.PerItem)
	}
}

func TestUploadBatchTransportFailure(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	if _, err := client.UploadBatch(context.Background(), BatchRequest{SessionID: "s1"}); err == nil {
		t.Error("5xx must be an error")
	}
}

func TestScanCurrentDecodesDevices(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/self/v1/scan-current" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"alias":"Deck","fingerprint":"fp1","ip_address":"10.0.0.5","port":53317}]}`))
	})
	defer server.Close()

	devices, err := client.ScanCurrent(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(devices) != 1 || devices[0].Alias != "Deck" || devices[0].Port != 53317 {
		t.Errorf("devices = %+v", devices)
	}
}

func TestCreateShareSessionIncompleteResponse(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"sessionId":"sh-1"}}`))
	})
	defer server.Close()

	if _, err := client.CreateShareSession(context.Background(), nil, "", false); err == nil {
		t.Error("missing downloadUrl must be an error")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cot-engine/internal/extract"
	"github.com/pdiddy/cot-engine/internal/generate"
	"github.com/pdiddy/cot-engine/internal/pipeline"
	"github.com/pdiddy/cot-engine/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	rs      types.ResultSet
	err     error
	gotText string
	gotN    int
	wait    bool
}

func (f *fakeRunner) Run(ctx context.Context, raw string, n int) (types.ResultSet, error) {
	f.gotText, f.gotN = raw, n
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.rs, f.err
}

type fakeExtractor struct {
	text    string
	err     error
	gotBody string
}

func (f *fakeExtractor) Extract(_ context.Context, doc extract.Document) (string, error) {
	data, _ := io.ReadAll(doc.Body)
	f.gotBody = string(data)
	return f.text, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var boiling = types.ResultSet{{
	Question:       "What temperature does water boil at sea level?",
	ChainOfThought: "boils at 100C",
	Reflection:     "confirmed 100C",
	FinalAnswer:    "100C",
}}

var testCfg = types.ServerConfig{Addr: ":0", MaxUploadBytes: 1 << 20}

// upload builds a multipart request carrying one file part.
func upload(t *testing.T, target, filename, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf_file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = io.WriteString(part, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["detail"]
}

func TestProcessPDF(t *testing.T) {
	runner := &fakeRunner{rs: boiling}
	ext := &fakeExtractor{text: "Water boils at 100C at sea level."}
	s := New(testCfg, runner, ext, nil)

	w := serve(s, upload(t, "/process-pdf?max_questions=1", "water.pdf", "application/pdf", "%PDF-1.7"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got types.ResultSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, boiling, got)
	assert.Equal(t, "%PDF-1.7", ext.gotBody)
	assert.Equal(t, "Water boils at 100C at sea level.", runner.gotText)
	assert.Equal(t, 1, runner.gotN)
	assert.NotContains(t, w.Body.String(), `"error"`)
}

func TestProcessPDF_DefaultQuestions(t *testing.T) {
	runner := &fakeRunner{rs: boiling}
	s := New(testCfg, runner, &fakeExtractor{text: "x"}, nil, WithDefaultQuestions(7))

	w := serve(s, upload(t, "/process-pdf", "a.pdf", "application/pdf", "%PDF"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, runner.gotN)
}

func TestProcessPDF_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantDetail string
	}{
		{
			name: "not a pdf",
			req: func(t *testing.T) *http.Request {
				return upload(t, "/process-pdf", "notes.txt", "text/plain", "hello")
			},
			wantDetail: "Invalid file type. Please upload a PDF file.",
		},
		{
			name: "question count too high",
			req: func(t *testing.T) *http.Request {
				return upload(t, "/process-pdf?max_questions=21", "a.pdf", "application/pdf", "%PDF")
			},
			wantDetail: "max_questions must be an integer between 1 and 20",
		},
		{
			name: "question count not a number",
			req: func(t *testing.T) *http.Request {
				return upload(t, "/process-pdf?max_questions=five", "a.pdf", "application/pdf", "%PDF")
			},
			wantDetail: "max_questions must be an integer",
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/process-pdf", strings.NewReader(""))
			},
			wantDetail: `missing form file "pdf_file"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s := New(testCfg, runner, &fakeExtractor{text: "x"}, nil)

			w := serve(s, tt.req(t))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeDetail(t, w), tt.wantDetail)
			assert.Empty(t, runner.gotText)
		})
	}
}

func TestProcessPDF_ExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{err: fmt.Errorf("%w: no text found in a.pdf", extract.ErrInput)}
	s := New(testCfg, &fakeRunner{}, ext, nil)

	w := serve(s, upload(t, "/process-pdf", "a.pdf", "application/pdf", "%PDF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeDetail(t, w), "no text found")
}

func TestProcess_JSON(t *testing.T) {
	runner := &fakeRunner{rs: boiling}
	s := New(testCfg, runner, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/process",
		strings.NewReader(`{"context":"Water boils at 100C at sea level.","max_questions":1}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"question": "What temperature does water boil at sea level?",
		"chain_of_thought": "boils at 100C",
		"reflection": "confirmed 100C",
		"final_answer": "100C"
	}]`, w.Body.String())
	assert.Equal(t, 1, runner.gotN)
}

func TestProcess_EmptyResultIsArray(t *testing.T) {
	s := New(testCfg, &fakeRunner{rs: nil}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(`{"context":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestProcess_Validation(t *testing.T) {
	for _, body := range []string{`{}`, `{"context":"x","max_questions":50}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			s := New(testCfg, &fakeRunner{}, nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
		})
	}
}

func TestProcess_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"backend down", &pipeline.StageError{Stage: types.StageReflection, Question: 2, Err: generate.ErrBackendUnavailable}, http.StatusBadGateway},
		{"malformed stream", &pipeline.StageError{Stage: types.StageQuestions, Question: -1, Err: generate.ErrMalformedChunk}, http.StatusBadGateway},
		{"stage timeout", &pipeline.StageError{Stage: types.StageFinalAnswer, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testCfg, &fakeRunner{err: tt.err}, nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(`{"context":"x"}`))
			req.Header.Set("Content-Type", "application/json")

			w := serve(s, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.err.Error(), decodeDetail(t, w))
		})
	}
}

func TestProcess_RequestTimeout(t *testing.T) {
	cfg := testCfg
	cfg.RequestTimeout = 20 * time.Millisecond
	s := New(cfg, &fakeRunner{wait: true}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(`{"context":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusGatewayTimeout, serve(s, req).Code)
}

func TestHealth(t *testing.T) {
	s := New(testCfg, &fakeRunner{}, nil, fakePinger{})
	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	s = New(testCfg, &fakeRunner{}, nil, fakePinger{err: generate.ErrBackendUnavailable})
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := New(types.ServerConfig{Addr: "127.0.0.1:0"}, &fakeRunner{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

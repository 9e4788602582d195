package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
)

type fakeService struct {
	textErr   error
	imageErr  error
	urlErr    error
	gotHints  []string
	gotText   string
	panicText bool
}

func (f *fakeService) ClassifyText(ctx context.Context, text string) (model.ClassificationResult, error) {
	f.gotText = text
	if f.panicText {
		panic("boom")
	}
	if f.textErr != nil {
		return model.ClassificationResult{}, f.textErr
	}
	if strings.TrimSpace(text) == "" {
		return model.ClassificationResult{}, model.ErrEmptyText
	}
	return model.ClassificationResult{Label: model.LabelReal, Confidence: 87.25}, nil
}

func (f *fakeService) ClassifyURL(ctx context.Context, rawURL string) (*model.URLClassification, error) {
	if f.urlErr != nil {
		return nil, f.urlErr
	}
	return &model.URLClassification{
		ClassificationResult: model.ClassificationResult{Label: model.LabelReal, Confidence: 40, IsReputableSource: true},
		URL:                  rawURL,
		SiteName:             "Reuters",
	}, nil
}

func (f *fakeService) ClassifyImage(ctx context.Context, img image.Image, hints []string) (*model.ImageClassification, error) {
	f.gotHints = hints
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &model.ImageClassification{
		ClassificationResult: model.ClassificationResult{Label: model.LabelFake, Confidence: 91.5},
		ExtractedText:        "HOAX",
		TextDetections:       1,
		Engine:               "fake-ocr",
	}, nil
}

func (f *fakeService) ClassifierName() string { return "fake" }
func (f *fakeService) EngineName() string { return "fake-ocr" }

func newTestServer(svc Service, mutate func(*model.Config)) *Server {
	cfg := model.DefaultConfig()
	cfg.RateLimit.RequestsPerSecond = 0
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, svc, nil, Options{Version: "test"})
}

func do(t *testing.T, s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHome(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), "GET", "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["message"]; got != "Fake News Detection API is running!" {
		t.Errorf("message = %v", got)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), "GET", "/healthz", "", "")
	body := decode(t, rec)
	if body["status"] != "ok" || body["classifier"] != "fake" || body["engine"] != "fake-ocr" || body["version"] != "test" {
		t.Errorf("health = %v", body)
	}
}

func TestPredict(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc, nil), "POST", "/predict", "application/json; charset=utf-8", `{"text":"Parliament passes budget"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["label"] != "REAL" || body["confidence"] != 87.25 || body["is_reputable_source"] != false {
		t.Errorf("body = %v", body)
	}
	if svc.gotText != "Parliament passes budget" {
		t.Errorf("service got %q", svc.gotText)
	}
}

func TestPredict_Validation(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
	}{
		{"not json", "text/plain", `{"text":"x"}`, 400, "Content-Type must be application/json"},
		{"empty body", "application/json", ``, 400, "Request body is empty"},
		{"empty object", "application/json", `{}`, 400, "Request body is empty"},
		{"null", "application/json", `null`, 400, "Request body is empty"},
		{"missing text", "application/json", `{"body":"x"}`, 400, "text field missing"},
		{"number text", "application/json", `{"text":42}`, 400, "text must be a string"},
		{"null text", "application/json", `{"text":null}`, 400, "text must be a string"},
		{"blank text", "application/json", `{"text":"   "}`, 400, "text cannot be empty"},
		{"array body", "application/json", `["text"]`, 400, "Request body must be a JSON object"},
		{"broken json", "application/json", `{"text":`, 400, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&fakeService{}, nil), "POST", "/predict", tt.contentType, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decode(t, rec)["error"]; got != tt.wantError {
				t.Errorf("error = %v, want %q", got, tt.wantError)
			}
		})
	}
}

func TestPredict_BodyTooLarge(t *testing.T) {
	s := newTestServer(&fakeService{}, func(c *model.Config) { c.Server.MaxBodyBytes = 16 })
	rec := do(t, s, "POST", "/predict", "application/json", `{"text":"this body is longer than sixteen bytes"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestPipelineErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{model.ErrEmptyText, 400},
		{fmt.Errorf("%w: bad", model.ErrInvalidInput), 400},
		{fmt.Errorf("%w: bad", model.ErrInvalidImage), 400},
		{model.ErrNoTextExtracted, 422},
		{model.ErrNoMeaningfulText, 422},
		{model.ErrRobotsDisallowed, 403},
		{fmt.Errorf("%w: 404", model.ErrFetchFailure), 502},
		{fmt.Errorf("%w: crash", model.ErrOCRFailure), 500},
		{fmt.Errorf("%w: %w", model.ErrClassification, context.DeadlineExceeded), 504},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.wantStatus {
				t.Errorf("statusForError() = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestPredict_ClassificationFailure(t *testing.T) {
	svc := &fakeService{textErr: fmt.Errorf("%w: model unavailable", model.ErrClassification)}
	rec := do(t, newTestServer(svc, nil), "POST", "/predict", "application/json", `{"text":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Prediction failed: classification failed: model unavailable" {
		t.Errorf("error = %v", got)
	}
}

func TestPredictImage_JSON(t *testing.T) {
	svc := &fakeService{}
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
	payload, _ := json.Marshal(map[string]any{"image": encoded, "language_hints": []string{"en", "fr"}})

	rec := do(t, newTestServer(svc, nil), "POST", "/predict/image", "application/json", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["label"] != "FAKE" || body["text_detections"] != float64(1) || body["engine"] != "fake-ocr" {
		t.Errorf("body = %v", body)
	}
	if len(svc.gotHints) != 2 || svc.gotHints[1] != "fr" {
		t.Errorf("hints = %v", svc.gotHints)
	}
}

func TestPredictImage_Multipart(t *testing.T) {
	svc := &fakeService{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "page.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(pngBytes(t))
	_ = mw.WriteField("language_hints", "en, de")
	_ = mw.Close()

	rec := do(t, newTestServer(svc, nil), "POST", "/predict/image", mw.FormDataContentType(), buf.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if len(svc.gotHints) != 2 || svc.gotHints[0] != "en" || svc.gotHints[1] != "de" {
		t.Errorf("hints = %v", svc.gotHints)
	}
}

func TestPredictImage_Errors(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString(pngBytes(t))

	tests := []struct {
		name       string
		svc        *fakeService
		body       string
		wantStatus int
	}{
		{"missing image", &fakeService{}, `{"language_hints":["en"]}`, 400},
		{"not base64", &fakeService{}, `{"image":"%%%"}`, 400},
		{"not an image", &fakeService{}, `{"image":"` + base64.StdEncoding.EncodeToString([]byte("hello")) + `"}`, 400},
		{"bad hints", &fakeService{}, `{"image":"` + valid + `","language_hints":"en"}`, 400},
		{"nothing recognized", &fakeService{imageErr: model.ErrNoTextExtracted}, `{"image":"` + valid + `"}`, 422},
		{"only metadata", &fakeService{imageErr: model.ErrNoMeaningfulText}, `{"image":"` + valid + `"}`, 422},
		{"engine crash", &fakeService{imageErr: fmt.Errorf("%w: crash", model.ErrOCRFailure)}, `{"image":"` + valid + `"}`, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(tt.svc, nil), "POST", "/predict/image", "application/json", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestPredictImage_PixelLimit(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc, func(c *model.Config) { c.OCR.MaxPixels = 16 })

	payload := `{"image":"` + base64.StdEncoding.EncodeToString(pngBytes(t)) + `","language_hints":["en"]}`
	rec := do(t, s, "POST", "/predict/image", "application/json", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg, _ := decode(t, rec)["error"].(string); !strings.Contains(msg, "pixel limit") {
		t.Errorf("error = %q", msg)
	}
	if svc.gotHints != nil {
		t.Error("oversized image reached the service")
	}
}

func TestPredictURL(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), "POST", "/predict/url", "application/json", `{"url":"https://www.reuters.com/a"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["site_name"] != "Reuters" || body["is_reputable_source"] != true {
		t.Errorf("body = %v", body)
	}

	rec = do(t, newTestServer(&fakeService{urlErr: model.ErrRobotsDisallowed}, nil), "POST", "/predict/url", "application/json", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestPredictBatch(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), "POST", "/predict/batch", "application/json",
		`{"texts":["Parliament passes budget","  "],"urls":["https://www.reuters.com/a"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count   int `json:"count"`
		Failed  int `json:"failed"`
		Results []struct {
			Index int     `json:"index"`
			Text  string  `json:"text"`
			URL   string  `json:"url"`
			Label string  `json:"label"`
			Conf  float64 `json:"confidence"`
			Error string  `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 3 || body.Failed != 1 {
		t.Fatalf("count = %d failed = %d", body.Count, body.Failed)
	}
	if body.Results[0].Label != "REAL" || body.Results[0].Conf != 87.25 {
		t.Errorf("result 0 = %+v", body.Results[0])
	}
	if body.Results[1].Error != "text cannot be empty" || body.Results[1].Label != "" {
		t.Errorf("result 1 = %+v", body.Results[1])
	}
	if body.Results[2].URL != "https://www.reuters.com/a" || body.Results[2].Conf != 40 {
		t.Errorf("result 2 = %+v", body.Results[2])
	}
}

func TestPredictBatch_Validation(t *testing.T) {
	tooMany := make([]string, maxBatchItems+1)
	for i := range tooMany {
		tooMany[i] = "x"
	}
	large, _ := json.Marshal(map[string]any{"texts": tooMany})

	tests := []struct {
		name string
		body string
	}{
		{"no items", `{"texts":[]}`},
		{"wrong type", `{"texts":"one"}`},
		{"too many", string(large)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&fakeService{}, nil), "POST", "/predict/batch", "application/json", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), "GET", "/languages", "", "")
	body := decode(t, rec)
	if body["source"] != string(ocr.SourceStatic) {
		t.Errorf("source = %v", body["source"])
	}
	if langs, ok := body["languages"].([]any); !ok || len(langs) != len(ocr.StaticLanguages) {
		t.Errorf("languages = %v", body["languages"])
	}

	cfg := model.DefaultConfig()
	s := New(cfg, &fakeService{}, nil, Options{Languages: func() ([]string, ocr.LanguageSource) {
		return []string{"en"}, ocr.SourceEngine
	}})
	body = decode(t, do(t, s, "GET", "/languages", "", ""))
	if body["source"] != "tesseract" {
		t.Errorf("source = %v", body["source"])
	}
}

func TestMethodAndRouteErrors(t *testing.T) {
	s := newTestServer(&fakeService{}, nil)

	if rec := do(t, s, "GET", "/predict", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /predict status = %d, want 405", rec.Code)
	}
	if rec := do(t, s, "GET", "/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want 404", rec.Code)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(&fakeService{}, nil).Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	cfg := model.DefaultConfig()
	cfg.RateLimit.RequestsPerSecond = 0
	s := New(cfg, &fakeService{panicText: true}, slog.New(slog.NewTextHandler(&logs, nil)), Options{})

	rec := do(t, s, "POST", "/predict", "application/json", `{"text":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(logs.String(), "panic in handler") || !strings.Contains(logs.String(), "boom") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(&fakeService{}, func(c *model.Config) { c.Server.CORSOrigins = []string{"https://app.example/"} })

	req := httptest.NewRequest("OPTIONS", "/predict", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Allow-Headers = %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.EqualFold(got, requestIDHeader) {
		t.Errorf("Expose-Headers = %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for unknown origin", got)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	s := newTestServer(&fakeService{}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestCORS_Disabled(t *testing.T) {
	s := newTestServer(&fakeService{}, func(c *model.Config) { c.Server.CORSOrigins = nil })

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want none", got)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(&fakeService{}, func(c *model.Config) {
		c.RateLimit.RequestsPerSecond = 0.01
		c.RateLimit.Burst = 1
	})

	first := do(t, s, "POST", "/predict", "application/json", `{"text":"x"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	second := do(t, s, "POST", "/predict", "application/json", `{"text":"x"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.Code)
	}

	// informational routes are not limited
	if rec := do(t, s, "GET", "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

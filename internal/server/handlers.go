package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
	"github.com/ppiankov/newsguard/internal/worker"
)

// requestError is a client mistake reported verbatim with 400
type requestError struct {
	code    int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) *requestError {
	return &requestError{code: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Fake News Detection API is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"classifier": s.service.ClassifierName(),
		"engine":     s.service.EngineName(),
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	languages, source := s.languages()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"languages": languages,
		"source":    source,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, rerr := s.decodeJSONObject(w, r)
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}
	text, rerr := stringField(body, "text")
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}

	result, err := s.service.ClassifyText(r.Context(), text)
	if err != nil {
		respondWithPipelineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handlePredictImage(w http.ResponseWriter, r *http.Request) {
	var (
		img   image.Image
		hints []string
		rerr  *requestError
	)
	if mediaType(r) == "multipart/form-data" {
		img, hints, rerr = s.readMultipartImage(w, r)
	} else {
		img, hints, rerr = s.readJSONImage(w, r)
	}
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}

	result, err := s.service.ClassifyImage(r.Context(), img, hints)
	if err != nil {
		respondWithPipelineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) readJSONImage(w http.ResponseWriter, r *http.Request) (image.Image, []string, *requestError) {
	body, rerr := s.decodeJSONObject(w, r)
	if rerr != nil {
		return nil, nil, rerr
	}
	encoded, rerr := stringField(body, "image")
	if rerr != nil {
		return nil, nil, rerr
	}

	var hints []string
	if raw, ok := body["language_hints"]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &hints); err != nil {
			return nil, nil, badRequest("language_hints must be a list of strings")
		}
	}

	img, err := ocr.DecodeBase64Image(encoded, s.maxPixels)
	if err != nil {
		return nil, nil, badRequest("%s", err.Error())
	}
	return img, hints, nil
}

func (s *Server) readMultipartImage(w http.ResponseWriter, r *http.Request) (image.Image, []string, *requestError) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := r.ParseMultipartForm(s.maxBodyBytes()); err != nil {
		return nil, nil, bodyError(err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, nil, badRequest("image field missing")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, badRequest("failed to read image: %v", err)
	}
	img, _, err := ocr.DecodeImage(data, s.maxPixels)
	if err != nil {
		return nil, nil, badRequest("%s", err.Error())
	}

	var hints []string
	for _, v := range r.MultipartForm.Value["language_hints"] {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hints = append(hints, h)
			}
		}
	}
	return img, hints, nil
}

func (s *Server) handlePredictURL(w http.ResponseWriter, r *http.Request) {
	body, rerr := s.decodeJSONObject(w, r)
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}
	rawURL, rerr := stringField(body, "url")
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}

	result, err := s.service.ClassifyURL(r.Context(), rawURL)
	if err != nil {
		respondWithPipelineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type batchItemResponse struct {
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	*model.ClassificationResult
	Error string `json:"error,omitempty"`
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	body, rerr := s.decodeJSONObject(w, r)
	if rerr != nil {
		respondWithError(w, rerr.code, rerr.message)
		return
	}

	var texts, urls []string
	if raw, ok := body["texts"]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &texts); err != nil {
			respondWithError(w, http.StatusBadRequest, "texts must be a list of strings")
			return
		}
	}
	if raw, ok := body["urls"]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &urls); err != nil {
			respondWithError(w, http.StatusBadRequest, "urls must be a list of strings")
			return
		}
	}

	items := make([]worker.Item, 0, len(texts)+len(urls))
	for _, t := range texts {
		items = append(items, worker.Item{Text: t})
	}
	for _, u := range urls {
		items = append(items, worker.Item{URL: u})
	}
	switch {
	case len(items) == 0:
		respondWithError(w, http.StatusBadRequest, "texts field missing")
		return
	case len(items) > maxBatchItems:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d items", maxBatchItems))
		return
	}

	results := s.batch.ProcessItems(r.Context(), items)

	out := make([]batchItemResponse, len(results))
	failed := 0
	for i, res := range results {
		out[i] = batchItemResponse{
			Index:                res.Index,
			Text:                 res.Item.Text,
			URL:                  res.Item.URL,
			ClassificationResult: res.Result,
		}
		if res.Error != nil {
			out[i].Error = res.Error.Error()
			failed++
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"count":   len(out),
		"failed":  failed,
		"results": out,
	})
}

// decodeJSONObject enforces a JSON content type and a non-empty object body
func (s *Server) decodeJSONObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, *requestError) {
	if mediaType(r) != "application/json" {
		return nil, badRequest("Content-Type must be application/json")
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes()))
	if err != nil {
		return nil, bodyError(err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isJSONNull(data) {
		return nil, badRequest("Request body is empty")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, badRequest("Request body must be a JSON object")
		}
		return nil, badRequest("Invalid JSON body")
	}
	if len(body) == 0 {
		return nil, badRequest("Request body is empty")
	}
	return body, nil
}

// stringField extracts a required string field
func stringField(body map[string]json.RawMessage, name string) (string, *requestError) {
	raw, ok := body[name]
	if !ok {
		return "", badRequest("%s field missing", name)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil || isJSONNull(raw) {
		return "", badRequest("%s must be a string", name)
	}
	return value, nil
}

func bodyError(err error) *requestError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{
			code:    http.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
		}
	}
	return badRequest("Invalid request body: %v", err)
}

func isJSONNull(raw []byte) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func (s *Server) maxBodyBytes() int64 {
	if s.config.MaxBodyBytes > 0 {
		return s.config.MaxBodyBytes
	}
	return 20 << 20
}

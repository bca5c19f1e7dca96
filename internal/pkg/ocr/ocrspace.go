package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pictotext/pictotext/internal/pkg/env"
	"github.com/pictotext/pictotext/internal/pkg/imageprep"
)

const (
	ocrSpaceEndpoint = "https://api.ocr.space/parse/image"
	// ocrSpaceMaxBytes is the upload cap of the OCR.space API. Larger images
	// are compressed before sending.
	ocrSpaceMaxBytes = 1024 * 1024

	// EngineOCRSpace names the primary engine in results and logs.
	EngineOCRSpace = "ocrspace"
)

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// OCRSpaceClient calls the OCR.space parse API with engine 2.
type OCRSpaceClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOCRSpaceClient reads OCR_SPACE_API_KEY from the environment. A missing
// key yields a client whose calls fail with ErrUnavailable, letting the
// fallback chain take over.
func NewOCRSpaceClient() *OCRSpaceClient {
	return &OCRSpaceClient{
		apiKey:   env.GetEnv("OCR_SPACE_API_KEY", ""),
		endpoint: ocrSpaceEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether an API key is configured.
func (c *OCRSpaceClient) Available() bool {
	return c.apiKey != ""
}

// ExtractText sends the image as a base64 data URL and parses the response.
func (c *OCRSpaceClient) ExtractText(ctx context.Context, image []byte, filter bool) (*Result, error) {
	const op = "OCRSpaceClient.ExtractText"

	if c.apiKey == "" {
		return nil, wrapErr(op, ErrUnavailable)
	}

	if len(image) > ocrSpaceMaxBytes {
		compressed, err := imageprep.Compress(image, ocrSpaceMaxBytes)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		image = compressed
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", imageprep.DetectMIME(image), base64.StdEncoding.EncodeToString(image))

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"base64Image":       dataURL,
		"language":          "eng",
		"OCREngine":         "2",
		"detectOrientation": "true",
		"scale":             "true",
		"isOverlayRequired": "false",
		"isTable":           "true",
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, wrapErr(op, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, wrapErr(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErr(op, fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapErr(op, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, wrapErr(op, err)
	}

	if parsed.IsErroredOnProcessing {
		return nil, wrapErr(op, fmt.Errorf("%w: %s", ErrProcessing, string(parsed.ErrorMessage)))
	}

	var raw string
	if len(parsed.ParsedResults) > 0 {
		raw = parsed.ParsedResults[0].ParsedText
	}
	return finishResult(raw, filter, EngineOCRSpace), nil
}

package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// EngineVision names the fallback engine in results and logs.
const EngineVision = "vision"

// VisionClient runs document text detection on Google Cloud Vision. It is
// the fallback engine when OCR.space is unreachable.
type VisionClient struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionClient creates a Vision engine using credentials from the
// environment. GOOGLE_CREDENTIALS takes an inline JSON blob,
// GOOGLE_APPLICATION_CREDENTIALS a file path, and application default
// credentials are the fallback.
func NewVisionClient(ctx context.Context) (*VisionClient, error) {
	const op = "NewVisionClient"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}

	return &VisionClient{client: client}, nil
}

// NewVisionClientWithClient wraps an existing annotator client, mainly for
// tests.
func NewVisionClientWithClient(client *vision.ImageAnnotatorClient) *VisionClient {
	return &VisionClient{client: client}
}

// Available reports whether the client was constructed with credentials.
func (v *VisionClient) Available() bool {
	return v != nil && v.client != nil
}

// ExtractText runs document text detection on the image bytes.
func (v *VisionClient) ExtractText(ctx context.Context, image []byte, filter bool) (*Result, error) {
	const op = "VisionClient.ExtractText"

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: []string{"en"},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, wrapErr(op, err)
	}

	raw, err := annotatedText(resp)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return finishResult(raw, filter, EngineVision), nil
}

// annotatedText pulls the document text out of a batch response.
func annotatedText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if len(resp.GetResponses()) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrProcessing)
	}
	annotated := resp.GetResponses()[0]
	if annotated.GetError() != nil {
		return "", fmt.Errorf("%w: %s", ErrProcessing, annotated.GetError().GetMessage())
	}
	return annotated.GetFullTextAnnotation().GetText(), nil
}

// Close releases the underlying gRPC connection.
func (v *VisionClient) Close() error {
	return v.client.Close()
}

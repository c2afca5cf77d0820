package detection

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/labledger/labledger-backend/pkg/config"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
)

const defaultDetectorTimeout = 10 * time.Second

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

// HTTPDetector posts frames to a remote classifier that answers with
// {"detections":[{"class":"beaker","confidence":0.91}]}.
type HTTPDetector struct {
	client        *resty.Client
	url           string
	minConfidence float64
}

// NewHTTPDetector builds a classifier client from config.
func NewHTTPDetector(cfg config.DetectorConfig) (*HTTPDetector, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "detector url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDetectorTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPDetector{client: client, url: url, minConfidence: cfg.MinConfidence}, nil
}

// Detect sends the image and drops detections below the confidence floor.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	var out detectResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(detectRequest{Image: base64.StdEncoding.EncodeToString(image)}).
		SetResult(&out).
		Post(d.url)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call detector")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "detector returned an error").
			WithDetails(map[string]any{"status": resp.StatusCode()})
	}

	kept := make([]Detection, 0, len(out.Detections))
	for _, det := range out.Detections {
		if det.Confidence < d.minConfidence {
			continue
		}
		kept = append(kept, det)
	}
	return kept, nil
}

package detection

import (
	"context"
	"encoding/base64"
	"strings"

	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
)

// Detection is one object found in a frame.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Detector classifies the objects in an encoded image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// DisabledDetector is used when no classifier endpoint is configured.
type DisabledDetector struct{}

func (DisabledDetector) Detect(context.Context, []byte) ([]Detection, error) {
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "detector not configured")
}

// DecodeFrame accepts either a data URL ("data:image/jpeg;base64,...") as
// produced by browser canvas capture, or a bare base64 payload.
func DecodeFrame(frame string) ([]byte, error) {
	payload := strings.TrimSpace(frame)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed data url")
		}
		if !strings.HasSuffix(payload[:idx], ";base64") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "data url must be base64 encoded")
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image is not valid base64")
	}
	return decoded, nil
}

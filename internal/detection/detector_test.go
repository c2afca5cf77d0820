package detection

import (
	"context"
	"encoding/base64"
	"testing"

	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeFrame("data:image/jpeg;base64," + encoded)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	got, err = DecodeFrame("  " + encoded + "\n")
	require.NoError(t, err)
	require.Equal(t, raw, got)

	cases := []string{
		"",
		"data:image/jpeg;base64",
		"data:image/svg+xml,<svg/>",
		"data:image/png;base64,",
		"not base64 at all!",
	}
	for _, frame := range cases {
		_, err := DecodeFrame(frame)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), frame)
	}
}

func TestDisabledDetector(t *testing.T) {
	_, err := DisabledDetector{}.Detect(context.Background(), []byte{1})
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_FirstText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "text in first part",
			body: `{"candidates":[{"content":{"parts":[{"text":"a --- b"},{"text":"ignored"}]}}]}`,
			want: "a --- b",
		},
		{name: "no candidates", body: `{"candidates":[]}`, wantErr: true},
		{name: "missing content", body: `{"candidates":[{"finishReason":"SAFETY"}]}`, wantErr: true},
		{name: "empty parts", body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: true},
		{name: "non-text first part", body: `{"candidates":[{"content":{"parts":[{"functionCall":{}}]}}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp Response
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			got, err := resp.FirstText()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrShapeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponse_FirstText_Nil(t *testing.T) {
	var resp *Response
	_, err := resp.FirstText()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", ErrorMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "quota exceeded", ErrorMessage([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`{"candidates":[]}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`not json`)))
}

func TestCalculateGeminiCost(t *testing.T) {
	cost := calculateGeminiCost(1_000_000, 1_000_000, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	assert.InDelta(t, geminiInputPricePerMillion+geminiOutputPricePerMillion, cost, 1e-9)
}

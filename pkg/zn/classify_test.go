package zn

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "empty body", body: "", wantErr: ErrEmptyResponse},
		{name: "whitespace body", body: "  \n\t ", wantErr: ErrEmptyResponse},
		{name: "html error page", body: "<html>502 Bad Gateway</html>", wantErr: ErrMalformedResponse},
		{name: "truncated json", body: `{"id":"a1`, wantErr: ErrMalformedResponse},
		{name: "success object", body: `{"id":"a1","name":"t"}`},
		{name: "success array", body: `[{"id":"a1"}]`},
		{name: "bare string", body: `"job-42"`},
		{name: "statusCode within 2xx is not an error", body: `{"statusCode":201,"id":"a1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Classify([]byte(tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, raw)
		})
	}
}

func TestClassifyEmbeddedError(t *testing.T) {
	raw, err := Classify([]byte(`{"statusCode":404,"error":"Not Found","message":"no such target"}`))
	require.Error(t, err)
	assert.Nil(t, raw)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
	assert.Equal(t, "no such target", apiErr.Message)
}

func TestClassifyEmbeddedErrorFallsBackToErrorField(t *testing.T) {
	_, err := Classify([]byte(`{"statusCode":500,"error":"Internal Server Error"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
}

func TestParseListPageEnvelope(t *testing.T) {
	raw, err := Classify([]byte(`[[{"id":"a"},{"id":"b"}],{"count":7}]`))
	require.NoError(t, err)

	page, err := ParseListPage(raw)
	require.NoError(t, err)
	assert.True(t, page.HasCount)
	assert.Equal(t, 7, page.Count)
	require.Len(t, page.Items, 2)

	var first struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(page.Items[0], &first))
	assert.Equal(t, "a", first.ID)
}

func TestParseListPageBareArray(t *testing.T) {
	page, err := ParseListPage(json.RawMessage(`[{"id":"a"},{"id":"b"},{"id":"c"}]`))
	require.NoError(t, err)
	assert.False(t, page.HasCount)
	assert.Len(t, page.Items, 3)
}

func TestParseListPageTwoItemArrayWithoutCount(t *testing.T) {
	// A two-element array whose second element carries no count field is a
	// plain two-item page, not an envelope.
	page, err := ParseListPage(json.RawMessage(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.False(t, page.HasCount)

	want := []json.RawMessage{
		json.RawMessage(`{"id":"a"}`),
		json.RawMessage(`{"id":"b"}`),
	}
	if diff := cmp.Diff(want, page.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListPageRejectsNonArray(t *testing.T) {
	_, err := ParseListPage(json.RawMessage(`{"id":"a"}`))
	require.ErrorIs(t, err, ErrMalformedResponse)
}

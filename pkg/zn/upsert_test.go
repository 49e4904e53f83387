package zn

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInventory is a minimal in-memory targets endpoint: lists answer from
// the store, creates append to it. It makes idempotence observable through
// the create count.
type fakeInventory struct {
	mu      sync.Mutex
	items   []string
	creates int
}

func (f *fakeInventory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method == http.MethodPost {
		f.creates++
		var payload struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&payload) //nolint:errcheck
		item, _ := json.Marshal(map[string]interface{}{ //nolint:errcheck
			"id":   "created-1",
			"data": map[string]string{"name": payload.Name},
		})
		f.items = append(f.items, string(item))
		w.Write(item) //nolint:errcheck
		return
	}
	listHandler(f.items, nil).ServeHTTP(w, r)
}

func TestEnsureReusesExistingResource(t *testing.T) {
	inventory := &fakeInventory{items: []string{`{"id":"t1","data":{"name":"web-app"}}`}}
	client := newTestClient(t, inventory)

	id, err := client.Ensure(context.Background(), Targets, "web-app", TargetPayload{Name: "web-app"})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
	assert.Equal(t, 0, inventory.creates)
}

func TestEnsureCreatesWhenAbsent(t *testing.T) {
	inventory := &fakeInventory{}
	client := newTestClient(t, inventory)

	id, err := client.Ensure(context.Background(), Targets, "web-app", TargetPayload{Name: "web-app"})
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)
	assert.Equal(t, 1, inventory.creates)
}

func TestEnsureIsIdempotent(t *testing.T) {
	inventory := &fakeInventory{}
	client := newTestClient(t, inventory)
	ctx := context.Background()

	first, err := client.Ensure(ctx, Targets, "web-app", TargetPayload{Name: "web-app"})
	require.NoError(t, err)
	second, err := client.Ensure(ctx, Targets, "web-app", TargetPayload{Name: "web-app"})
	require.NoError(t, err)

	// The second call finds the resource the first one created.
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inventory.creates)
}

func TestEnsureFailsFastOnAmbiguity(t *testing.T) {
	inventory := &fakeInventory{items: []string{
		`{"id":"t1","data":{"name":"web-app"}}`,
		`{"id":"t2","data":{"name":"WEB-APP"}}`,
	}}
	client := newTestClient(t, inventory)

	_, err := client.Ensure(context.Background(), Targets, "web-app", TargetPayload{Name: "web-app"})
	var ambiguous *AmbiguousNameError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 0, inventory.creates, "ambiguity must never trigger a create")
}

func TestEnsureWrapsCreateFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"statusCode":400,"error":"Bad Request","message":"missing environmentId"}`)) //nolint:errcheck
			return
		}
		listHandler(nil, nil).ServeHTTP(w, r)
	}))

	_, err := client.Ensure(context.Background(), Targets, "web-app", TargetPayload{Name: "web-app"})
	require.ErrorIs(t, err, ErrCreateFailed)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
}

func TestEnsureDoubleCheckCreatesAfterAgreement(t *testing.T) {
	inventory := &fakeInventory{}
	client := newTestClient(t, inventory)

	id, err := client.EnsureDoubleCheck(context.Background(), Targets, "web-app",
		TargetPayload{Name: "web-app"})
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)
	assert.Equal(t, 1, inventory.creates)
}

func TestEnsureDoubleCheckHonorsCancellation(t *testing.T) {
	inventory := &fakeInventory{}
	client := newTestClient(t, inventory)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The randomized inter-check delay is at least 500ms, so the context
	// expires during the wait and nothing gets created.
	_, err := client.EnsureDoubleCheck(ctx, Targets, "web-app", TargetPayload{Name: "web-app"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, inventory.creates)
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "object", body: `{"id":"t1","name":"x"}`, want: "t1"},
		{name: "one-element array", body: `[{"id":"t2"}]`, want: "t2"},
		{name: "empty array", body: `[]`, wantErr: true},
		{name: "object without id", body: `{"name":"x"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ExtractID(json.RawMessage(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

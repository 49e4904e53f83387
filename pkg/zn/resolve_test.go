package zn

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listHandler answers every request with the given items wrapped in the
// count envelope, recording how many requests arrived.
func listHandler(items []string, requests *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			*requests++
		}
		body := "[["
		for i, item := range items {
			if i > 0 {
				body += ","
			}
			body += item
		}
		body += fmt.Sprintf("],{\"count\":%d}]", len(items))
		w.Write([]byte(body)) //nolint:errcheck
	})
}

func TestResolveSingleMatch(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		listHandler([]string{
			`{"id":"t1","data":{"name":"web-app"}}`,
			`{"id":"t2","data":{"name":"web-app-staging"}}`,
		}, nil).ServeHTTP(w, r)
	}))

	id, err := client.Resolve(context.Background(), Targets, "web-app")
	require.NoError(t, err)
	// The server filter is a substring match; the superset it returns is
	// narrowed to exact matches client-side.
	assert.Equal(t, "t1", id)
	assert.Contains(t, gotQuery, "name=web-app")
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	client := newTestClient(t, listHandler([]string{
		`{"id":"t1","data":{"name":"Web-App"}}`,
	}, nil))

	id, err := client.Resolve(context.Background(), Targets, "web-app")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
}

func TestResolveNotFound(t *testing.T) {
	client := newTestClient(t, listHandler(nil, nil))

	_, err := client.Resolve(context.Background(), Policies, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAmbiguousName(t *testing.T) {
	// "Foo" and "FOO" both match "foo" exactly under case folding;
	// "foo-bar" is only a substring match and must not count.
	client := newTestClient(t, listHandler([]string{
		`{"id":"t1","data":{"name":"Foo"}}`,
		`{"id":"t2","data":{"name":"foo-bar"}}`,
		`{"id":"t3","data":{"name":"FOO"}}`,
	}, nil))

	_, err := client.Resolve(context.Background(), Targets, "foo")
	require.Error(t, err)

	var ambiguous *AmbiguousNameError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "targets", ambiguous.Kind)
	assert.Equal(t, []string{"t1", "t3"}, ambiguous.IDs)
}

func TestResolveTopLevelName(t *testing.T) {
	// Some collections carry the name at the top level instead of under data.
	client := newTestClient(t, listHandler([]string{
		`{"id":"u1","name":"ops@example.com"}`,
	}, nil))

	id, err := client.Resolve(context.Background(), Users, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestResolveEscapesNameInQuery(t *testing.T) {
	var gotName string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		listHandler([]string{
			`{"id":"t1","data":{"name":"registry/app:v1.2 (prod)"}}`,
		}, nil).ServeHTTP(w, r)
	}))

	id, err := client.Resolve(context.Background(), Targets, "registry/app:v1.2 (prod)")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
	assert.Equal(t, "registry/app:v1.2 (prod)", gotName)
}

func TestResolveSurfacesEmbeddedErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode":401,"error":"Unauthorized","message":"bad token"}`)) //nolint:errcheck
	}))

	_, err := client.Resolve(context.Background(), Targets, "web-app")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
}

func TestResolveEmptyName(t *testing.T) {
	client := newTestClient(t, listHandler(nil, nil))

	_, err := client.Resolve(context.Background(), Targets, "")
	require.Error(t, err)
}

func TestKindByName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "targets", want: "targets"},
		{in: "target", want: "targets"},
		{in: "Policies", want: "policies"},
		{in: "issues", want: "syntheticIssues"},
		{in: "jobs", want: "jobs"},
		{in: "scenarios", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, err := KindByName(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind.Path)
		})
	}
}

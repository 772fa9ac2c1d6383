package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTInsertSendsServiceCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/transactions", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tx-1", body["id"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"tx-1","amount":100000,"status":"pending"}]`))
	}))
	defer srv.Close()

	gw := NewREST(srv.URL, "service-key", time.Second)
	row, err := gw.Insert(context.Background(), "transactions", Row{"id": "tx-1", "amount": 100000})
	require.NoError(t, err)
	assert.Equal(t, "pending", row["status"])
	assert.EqualValues(t, 100000, row["amount"])
}

func TestRESTSelectEncodesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.tx-1", q.Get("id"))
		assert.Equal(t, []string{"gte.2026-03-01T00:00:00Z"}, q["created_at"])
		assert.Equal(t, "is.null", q.Get("lead_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	gw := NewREST(srv.URL, "k", time.Second)
	rows, err := gw.Select(context.Background(), "transactions",
		Eq("id", "tx-1"),
		Gte("created_at", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Eq("lead_id", nil),
	)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRESTUpdateReturnsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.pending", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"tx-1","status":"completed"}]`))
	}))
	defer srv.Close()

	gw := NewREST(srv.URL, "k", time.Second)
	rows, err := gw.Update(context.Background(), "transactions", Row{"status": "completed"}, Eq("id", "tx-1"), Eq("status", "pending"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "completed", rows[0]["status"])
}

func TestRESTUpdateRequiresFilter(t *testing.T) {
	gw := NewREST("http://127.0.0.1:1", "k", time.Second)

	_, err := gw.Update(context.Background(), "transactions", Row{"status": "completed"})
	assert.Error(t, err)
}

func TestRESTClassifiesBackendErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"missing relation", http.StatusNotFound, `{"code":"42P01","message":"relation \"public.promo_leads\" does not exist"}`, ErrRelationMissing},
		{"schema cache miss", http.StatusNotFound, `{"code":"PGRST205","message":"Could not find the table"}`, ErrRelationMissing},
		{"duplicate key", http.StatusConflict, `{"code":"23505","message":"duplicate key value violates unique constraint"}`, ErrConflict},
		{"malformed uuid", http.StatusBadRequest, `{"code":"22P02","message":"invalid input syntax for type uuid: \"not-a-uuid\""}`, ErrInvalidInput},
		{"check violation", http.StatusBadRequest, `{"code":"23514","message":"new row violates check constraint"}`, ErrInvalidInput},
		{"bad request without code", http.StatusBadRequest, `{"message":"bad filter"}`, ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			gw := NewREST(srv.URL, "k", time.Second)
			_, err := gw.Insert(context.Background(), "promo_leads", Row{"id": "l-1"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRESTServerErrorIsNotClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer srv.Close()

	gw := NewREST(srv.URL, "k", time.Second)
	_, err := gw.Select(context.Background(), "transactions")
	require.Error(t, err)
	assert.False(t, IsClientError(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestRESTThrottlingIsNotClientError(t *testing.T) {
	for _, status := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		gw := NewREST(srv.URL, "k", time.Second)
		_, err := gw.Select(context.Background(), "transactions")
		require.Error(t, err)
		assert.False(t, IsClientError(err), "status %d", status)
		srv.Close()
	}
}

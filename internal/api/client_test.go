package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modpanel.org/internal/api"
	"modpanel.org/internal/store"
)

func withMockClient(t *testing.T, callback func(*api.Client, *store.Store, *http.ServeMux)) {
	t.Helper()
	mux := &http.ServeMux{}
	server := httptest.NewServer(mux)
	defer server.Close()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	c := api.New(server.URL, st)
	callback(c, st, mux)
}

var testUserJSON = `{
	"id": 42,
	"username": "alice",
	"role": "admin",
	"managed_groups": [1001],
	"permissions": [{"action": "moderate", "scope": "group", "allowed": true}]
}`

func TestLoginDecodesUserStrictly(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, float64(42), req["user_id"])
			assert.Equal(t, "alice", req["username"])
			_, _ = w.Write([]byte(`{"success":true,"token":"tok-1","expires_at":99,"user":` + testUserJSON + `}`))
		})

		user, token, err := c.Auth.Login(context.Background(), 42, "alice")
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(99), user.ExpiresAt)
	})
}

func TestLoginRejectsMalformedUser(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"token":"tok-1","user":{"id":0,"role":"alien"}}`))
		})

		_, _, err := c.Auth.Login(context.Background(), 42, "alice")
		require.Error(t, err)
		assert.Equal(t, api.ClassGeneric, api.ClassOf(err))
	})
}

func TestLoginValidatesInputLocally(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		_, _, err := c.Auth.Login(context.Background(), 0, "alice")
		require.Error(t, err)
		assert.Equal(t, api.ClassValidation, api.ClassOf(err))

		_, _, err = c.Auth.Login(context.Background(), 42, "")
		require.Error(t, err)
		assert.Equal(t, api.ClassValidation, api.ClassOf(err))
	})
}

func TestBearerTokenAttached(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		require.NoError(t, st.Set(store.KeyAuthToken, "tok-abc"))
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"status":"healthy","service":"x","version":"1"}`))
		})

		health, err := c.Util.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "healthy", health.Status)
	})
}

func TestUnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	mux := &http.ServeMux{}
	server := httptest.NewServer(mux)
	defer server.Close()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Set(store.KeyAuthToken, "expired"))

	hookFired := 0
	c := api.New(server.URL, st, api.WithOnUnauthorized(func() { hookFired++ }))

	mux.HandleFunc("/groups/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err = c.Groups.List(context.Background(), 1, 20, nil)
	require.Error(t, err)
	assert.Equal(t, api.ClassCredential, api.ClassOf(err))
	assert.Equal(t, "unauthorized, please log in again", err.Error())
	assert.Equal(t, 1, hookFired)

	_, ok := st.Get(store.KeyAuthToken)
	assert.False(t, ok, "token must be cleared after a 401")
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status  int
		class   api.Class
		message string
	}{
		{400, api.ClassValidation, "user not found in group"},
		{403, api.ClassCredential, "permission denied"},
		{404, api.ClassGeneric, "resource not found"},
		{409, api.ClassGeneric, "conflict, resource already exists"},
		{429, api.ClassGeneric, "too many requests, please try again later"},
		{500, api.ClassServer, "server error, please try again later"},
		{503, api.ClassServer, "server error, please try again later"},
	}
	for _, tc := range cases {
		withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
			mux.HandleFunc("/groups/5", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"user not found in group"}`))
			})

			_, err := c.Groups.Get(context.Background(), 5)
			require.Error(t, err, "status %d", tc.status)
			assert.Equal(t, tc.class, api.ClassOf(err), "status %d", tc.status)
			assert.Equal(t, tc.message, err.Error(), "status %d", tc.status)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	// nothing listens here
	c := api.New("http://127.0.0.1:1", st)

	_, err = c.Util.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.ClassTransport, api.ClassOf(err))
	assert.Equal(t, "network error, please check your connection and try again", err.Error())
}

func TestActionCarriesInitiatedBy(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		require.NoError(t, st.Set(store.KeyUserID, "42"))
		mux.HandleFunc("/actions/ban", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, float64(42), req["initiated_by"])
			assert.Equal(t, "@spammer", req["user_input"])
			_, _ = w.Write([]byte(`{"success":true,"action_id":"a1","message":"banned"}`))
		})

		result, err := c.Actions.Ban(context.Background(), 1001, "@spammer", "spam")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "a1", result.ActionID)
	})
}

func TestActionValidatesLocally(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		_, err := c.Actions.Ban(context.Background(), 0, "@spammer", "")
		require.Error(t, err)
		assert.Equal(t, api.ClassValidation, api.ClassOf(err))

		_, err = c.Actions.Ban(context.Background(), 1001, "", "")
		require.Error(t, err)
		assert.Equal(t, api.ClassValidation, api.ClassOf(err))
	})
}

func TestBatchInjectsInitiatedBy(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		require.NoError(t, st.Set(store.KeyUserID, "7"))
		mux.HandleFunc("/actions/batch", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Actions []api.BatchItem `json:"actions"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Actions, 2)
			for _, item := range req.Actions {
				assert.Equal(t, int64(7), item.InitiatedBy)
			}
			_, _ = w.Write([]byte(`{"success":true,"total":2,"successful":2,"failed":0,"results":[]}`))
		})

		result, err := c.Actions.Batch(context.Background(), []api.BatchItem{
			{GroupID: 1, UserInput: "@a", ActionType: api.ActionWarn},
			{GroupID: 1, UserInput: "@b", ActionType: api.ActionWarn},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Successful)
	})
}

func TestListPassesPaginationParams(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		mux.HandleFunc("/groups/list", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("page_size"))
			_, _ = w.Write([]byte(`{"success":true,"groups":[],"total":0,"page":2,"page_size":10}`))
		})

		list, err := c.Groups.List(context.Background(), 2, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, list.Page)
	})
}

func TestExportReturnsRawBytes(t *testing.T) {
	withMockClient(t, func(c *api.Client, st *store.Store, mux *http.ServeMux) {
		mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "csv", r.URL.Query().Get("format"))
			assert.Equal(t, "actions", r.URL.Query().Get("data_type"))
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("id,action\n1,ban\n"))
		})

		data, err := c.Util.Export(context.Background(), "csv", "actions", nil)
		require.NoError(t, err)
		assert.Equal(t, "id,action\n1,ban\n", string(data))
	})
}

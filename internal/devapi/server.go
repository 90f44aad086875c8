// Package devapi is an in-memory stand-in for the moderation-bot platform
// backend, good enough to drive the console and its end-to-end tests without
// the real service. It speaks the same request/response shapes the console's
// REST adapter consumes.
package devapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"modpanel.org/internal/obs"
)

// API is the HTTP layer of the dev backend.
type API struct {
	router  *mux.Router
	secret  []byte
	data    *fixtures
	version string
}

// New assembles the router. The secret signs the HS256 session tokens.
func New(secret string, version string) *API {
	a := &API{
		router:  mux.NewRouter(),
		secret:  []byte(secret),
		data:    seedFixtures(),
		version: version,
	}

	r := a.router.PathPrefix("/api/web").Subrouter()

	r.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", a.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/auth/refresh", a.handleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/groups/list", a.handleGroupList).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}", a.handleGroupGet).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}/stats", a.handleGroupStats).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}/members", a.handleGroupMembers).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}/members/search", a.handleMemberSearch).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}/members/{uid:[0-9]+}", a.handleMemberGet).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id:[0-9]+}/members/{uid:[0-9]+}/history", a.handleMemberHistory).Methods(http.MethodGet)

	r.HandleFunc("/actions/batch", a.handleBatch).Methods(http.MethodPost)
	r.HandleFunc("/actions/status/{id}", a.handleActionStatus).Methods(http.MethodGet)
	r.HandleFunc("/actions/user-history", a.handleUserHistory).Methods(http.MethodGet)
	r.HandleFunc("/actions/group-stats", a.handleActionGroupStats).Methods(http.MethodGet)
	r.HandleFunc("/actions/{kind:[a-z]+}", a.handleAction).Methods(http.MethodPost)

	r.HandleFunc("/analytics/system", a.handleSystemAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/analytics/groups/{id:[0-9]+}", a.handleGroupAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/analytics/trends", a.handleTrends).Methods(http.MethodGet)
	r.HandleFunc("/analytics/top-users", a.handleTopUsers).Methods(http.MethodGet)

	r.HandleFunc("/parse-user", a.handleParseUser).Methods(http.MethodPost)
	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/info", a.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/export", a.handleExport).Methods(http.MethodGet)

	a.router.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	return a
}

// Handler wires the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

var publicSuffixes = []string{
	"/auth/login",
	"/health",
	"/info",
	"/metrics",
}

func isPublicPath(path string) bool {
	for _, suffix := range publicSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// withAuth rejects calls without a valid bearer token outside public paths and
// stashes the verified claims in the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.parseToken(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

const bearer = "Bearer "

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errBadScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

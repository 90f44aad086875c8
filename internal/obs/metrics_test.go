package obs

import "testing"

func TestCanonicalRoute(t *testing.T) {
	cases := map[string]string{
		"":                                    "/",
		"/metrics":                            "/metrics",
		"/api/web/groups/list":                "/api/web/groups/list",
		"/api/web/groups/1001":                "/api/web/groups/:id",
		"/api/web/groups/1001/members/100":    "/api/web/groups/:id/members/:id",
		"/api/web/actions/status/01J5ZX9Q7R":  "/api/web/actions/status/:id",
		"/api/web/analytics/trends?days=7":    "/api/web/analytics/trends",
		"/api/web/analytics/groups/42":        "/api/web/analytics/groups/:id",
		"/api/web/groups/1001/members/search": "/api/web/groups/:id/members/search",
	}
	for input, expected := range cases {
		if got := CanonicalRoute(input); got != expected {
			t.Fatalf("CanonicalRoute(%q)=%q, want %q", input, got, expected)
		}
	}
}

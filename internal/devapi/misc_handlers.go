package devapi

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"sort"
	"strconv"
	"time"

	"modpanel.org/internal/api"
)

func (a *API) handleSystemAnalytics(w http.ResponseWriter, r *http.Request) {
	a.data.mu.Lock()
	users := make(map[int64]struct{})
	for _, members := range a.data.members {
		for userID := range members {
			users[userID] = struct{}{}
		}
	}
	recent := append([]api.Action(nil), a.data.actions...)
	analytics := api.SystemAnalytics{
		Timestamp:    time.Now().UTC(),
		UsersCount:   len(users),
		GroupsCount:  len(a.data.groups),
		ActiveGroups: len(a.data.groups),
		TotalActions: len(a.data.actions),
	}
	a.data.mu.Unlock()

	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	analytics.RecentAction = recent
	writeJSON(w, http.StatusOK, analytics)
}

func (a *API) handleGroupAnalytics(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	stats, ok := a.groupStats(groupID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleTrends(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)

	a.data.mu.Lock()
	counts := make(map[string]int)
	for _, action := range a.data.actions {
		if groupID != 0 && action.GroupID != groupID {
			continue
		}
		if t, err := time.Parse(time.RFC3339, action.CreatedAt); err == nil {
			counts[t.Format("2006-01-02")]++
		}
	}
	a.data.mu.Unlock()

	points := make([]api.TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
		points = append(points, api.TrendPoint{Date: day, Count: counts[day]})
	}
	writeJSON(w, http.StatusOK, points)
}

func (a *API) handleTopUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	sortBy := r.URL.Query().Get("sort_by")
	if sortBy == "" {
		sortBy = "actions"
	}

	a.data.mu.Lock()
	perUser := make(map[int64]*api.TopUser)
	for _, action := range a.data.actions {
		entry, ok := perUser[action.UserID]
		if !ok {
			entry = &api.TopUser{UserID: action.UserID, Username: action.Username}
			perUser[action.UserID] = entry
		}
		entry.Actions++
		switch action.ActionType {
		case api.ActionWarn:
			entry.Warnings++
		case api.ActionBan:
			entry.Bans++
		}
	}
	a.data.mu.Unlock()

	top := make([]api.TopUser, 0, len(perUser))
	for _, entry := range perUser {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		switch sortBy {
		case "warnings":
			return top[i].Warnings > top[j].Warnings
		case "bans":
			return top[i].Bans > top[j].Bans
		default:
			return top[i].Actions > top[j].Actions
		}
	})
	if len(top) > limit {
		top = top[:limit]
	}
	writeJSON(w, http.StatusOK, top)
}

type parseUserRequest struct {
	Text string `json:"text"`
}

func (a *API) handleParseUser(w http.ResponseWriter, r *http.Request) {
	var req parseUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID, username, found := a.data.resolveUser(req.Text)
	if !found {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, api.ParsedUser{UserID: userID, Username: username})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthInfo{
		Status:  "healthy",
		Service: "modpanel-devapi",
		Version: a.version,
	})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.ServiceInfo{
		Name:    "modpanel-devapi",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: a.version,
	})
}

// handleExport streams a CSV of the recorded actions. The console treats the
// body as opaque bytes.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "csv" {
		writeError(w, r, http.StatusBadRequest, "only csv export is supported by the dev backend")
		return
	}

	a.data.mu.Lock()
	actions := append([]api.Action(nil), a.data.actions...)
	a.data.mu.Unlock()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id", "action_type", "group_id", "user_id", "username", "initiated_by", "reason", "status", "created_at"})
	for _, action := range actions {
		_ = cw.Write([]string{
			action.ID,
			string(action.ActionType),
			strconv.FormatInt(action.GroupID, 10),
			strconv.FormatInt(action.UserID, 10),
			action.Username,
			strconv.FormatInt(action.InitiatedBy, 10),
			action.Reason,
			string(action.Status),
			action.CreatedAt,
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="actions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

package devapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"modpanel.org/internal/api"
)

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (a *API) handleGroupList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	a.data.mu.Lock()
	groups := make([]api.Group, 0, len(a.data.groups))
	for _, g := range a.data.groups {
		groups = append(groups, *g)
	}
	a.data.mu.Unlock()
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	total := len(groups)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, api.GroupList{
		Success:  true,
		Groups:   groups[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (a *API) handleGroupGet(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	a.data.mu.Lock()
	group, ok := a.data.groups[groupID]
	var copied api.Group
	if ok {
		copied = *group
	}
	a.data.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, copied)
}

func (a *API) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	stats, ok := a.groupStats(groupID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// groupStats derives counters from the recorded actions.
func (a *API) groupStats(groupID int64) (api.GroupStats, bool) {
	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	if _, ok := a.data.groups[groupID]; !ok {
		return api.GroupStats{}, false
	}
	var stats api.GroupStats
	for _, action := range a.data.actions {
		if action.GroupID != groupID {
			continue
		}
		switch action.ActionType {
		case api.ActionBan:
			stats.TotalBans++
		case api.ActionKick:
			stats.TotalKicks++
		case api.ActionMute:
			stats.TotalMutes++
		case api.ActionWarn:
			stats.TotalWarnings++
		case api.ActionRestrict:
			stats.TotalRestricts++
		}
		stats.ActionsThisWeek++
	}
	return stats, true
}

func (a *API) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)

	a.data.mu.Lock()
	members, ok := a.data.members[groupID]
	list := make([]api.Member, 0, len(members))
	for _, m := range members {
		list = append(list, *m)
	}
	a.data.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })

	total := len(list)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	totalPages := (total + pageSize - 1) / pageSize

	writeJSON(w, http.StatusOK, api.Paginated[api.Member]{
		Success:    true,
		Data:       list[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func (a *API) handleMemberSearch(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "q is required")
		return
	}

	a.data.mu.Lock()
	members, ok := a.data.members[groupID]
	matches := make([]api.Member, 0)
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Username), query) ||
			strings.Contains(strconv.FormatInt(m.UserID, 10), query) {
			matches = append(matches, *m)
		}
	}
	a.data.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UserID < matches[j].UserID })
	writeJSON(w, http.StatusOK, matches)
}

func (a *API) handleMemberGet(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	userID := pathID(r, "uid")

	a.data.mu.Lock()
	member, ok := a.data.members[groupID][userID]
	var copied api.Member
	if ok {
		copied = *member
	}
	a.data.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, copied)
}

func (a *API) handleMemberHistory(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r, "id")
	userID := pathID(r, "uid")
	limit := queryInt(r, "limit", 50)

	a.data.mu.Lock()
	history := make([]api.Action, 0)
	for _, action := range a.data.actions {
		if action.GroupID == groupID && action.UserID == userID {
			history = append(history, action)
		}
	}
	a.data.mu.Unlock()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	writeJSON(w, http.StatusOK, history)
}

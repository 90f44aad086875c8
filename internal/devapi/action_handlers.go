package devapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"modpanel.org/internal/api"
)

type actionRequest struct {
	GroupID     int64  `json:"group_id"`
	UserInput   string `json:"user_input"`
	Reason      string `json:"reason,omitempty"`
	Duration    int64  `json:"duration,omitempty"`
	Title       string `json:"title,omitempty"`
	InitiatedBy int64  `json:"initiated_by"`
}

var actionKinds = map[string]api.ActionType{
	"ban":        api.ActionBan,
	"kick":       api.ActionKick,
	"mute":       api.ActionMute,
	"unmute":     api.ActionUnmute,
	"restrict":   api.ActionRestrict,
	"unrestrict": api.ActionUnrestrict,
	"warn":       api.ActionWarn,
	"promote":    api.ActionPromote,
	"demote":     api.ActionDemote,
	"unban":      api.ActionUnban,
}

// statusAfter maps an action to the member status it leaves behind.
func statusAfter(kind api.ActionType) (api.MemberStatus, bool) {
	switch kind {
	case api.ActionBan:
		return api.MemberBanned, true
	case api.ActionKick:
		return api.MemberLeft, true
	case api.ActionMute:
		return api.MemberMuted, true
	case api.ActionRestrict:
		return api.MemberRestricted, true
	case api.ActionWarn:
		return api.MemberWarned, true
	case api.ActionUnmute, api.ActionUnrestrict, api.ActionUnban:
		return api.MemberActive, true
	default:
		return "", false
	}
}

func (a *API) handleAction(w http.ResponseWriter, r *http.Request) {
	kind, ok := actionKinds[mux.Vars(r)["kind"]]
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown action")
		return
	}
	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	result := a.execute(kind, req)
	if !result.Success {
		writeError(w, r, http.StatusBadRequest, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) execute(kind api.ActionType, req actionRequest) api.ActionResult {
	if req.GroupID == 0 {
		return api.ActionResult{Error: "group_id is required"}
	}
	if req.UserInput == "" {
		return api.ActionResult{Error: "user_input is required"}
	}
	userID, username, found := a.data.resolveUser(req.UserInput)
	if !found {
		return api.ActionResult{Error: "user not found"}
	}

	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	members, ok := a.data.members[req.GroupID]
	if !ok {
		return api.ActionResult{Error: "group not found"}
	}
	member, ok := members[userID]
	if !ok {
		return api.ActionResult{Error: "user is not a member of this group"}
	}

	if status, changes := statusAfter(kind); changes {
		member.Status = status
	}
	switch kind {
	case api.ActionWarn:
		member.Warnings++
	case api.ActionPromote:
		member.IsAdmin = true
	case api.ActionDemote:
		member.IsAdmin = false
	}

	action := api.Action{
		ID:          uuid.NewString(),
		ActionType:  kind,
		GroupID:     req.GroupID,
		UserID:      userID,
		Username:    username,
		InitiatedBy: req.InitiatedBy,
		Reason:      req.Reason,
		Duration:    req.Duration,
		Status:      api.ActionCompleted,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	a.data.actions = append(a.data.actions, action)

	return api.ActionResult{
		Success:  true,
		ActionID: action.ID,
		UserID:   userID,
		Username: username,
		Message:  string(kind) + " applied",
	}
}

type batchRequest struct {
	Actions []api.BatchItem `json:"actions"`
}

func (a *API) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Actions) == 0 {
		writeError(w, r, http.StatusBadRequest, "actions are required")
		return
	}

	results := make([]api.ActionResult, 0, len(req.Actions))
	succeeded := 0
	for _, item := range req.Actions {
		result := a.execute(item.ActionType, actionRequest{
			GroupID:     item.GroupID,
			UserInput:   item.UserInput,
			Reason:      item.Reason,
			Duration:    item.Duration,
			InitiatedBy: item.InitiatedBy,
		})
		if result.Success {
			succeeded++
		}
		results = append(results, result)
	}

	writeJSON(w, http.StatusOK, api.BatchResult{
		Success:    succeeded == len(results),
		Total:      len(results),
		Successful: succeeded,
		Failed:     len(results) - succeeded,
		Results:    results,
	})
}

func (a *API) handleActionStatus(w http.ResponseWriter, r *http.Request) {
	actionID := mux.Vars(r)["id"]
	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	for _, action := range a.data.actions {
		if action.ID == actionID {
			writeJSON(w, http.StatusOK, action)
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "action not found")
}

func (a *API) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if userID == 0 {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	limit := queryInt(r, "limit", 100)

	a.data.mu.Lock()
	history := make([]api.Action, 0)
	for _, action := range a.data.actions {
		if action.UserID == userID {
			history = append(history, action)
		}
	}
	a.data.mu.Unlock()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	writeJSON(w, http.StatusOK, api.Paginated[api.Action]{
		Success:    true,
		Data:       history,
		Total:      len(history),
		Page:       1,
		PageSize:   limit,
		TotalPages: 1,
	})
}

func (a *API) handleActionGroupStats(w http.ResponseWriter, r *http.Request) {
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if groupID == 0 {
		writeError(w, r, http.StatusBadRequest, "group_id is required")
		return
	}
	stats, ok := a.groupStats(groupID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// ActionsAPI issues moderation actions. Every request carries the stored
// operator identifier as initiated_by.
type ActionsAPI struct {
	c *Client
}

type actionRequest struct {
	GroupID     int64  `json:"group_id"`
	UserInput   string `json:"user_input"`
	Reason      string `json:"reason,omitempty"`
	Duration    int64  `json:"duration,omitempty"`
	Title       string `json:"title,omitempty"`
	InitiatedBy int64  `json:"initiated_by"`
}

func (a *ActionsAPI) post(ctx context.Context, path string, req actionRequest) (*ActionResult, error) {
	if req.GroupID == 0 {
		return nil, validationError("group id is required")
	}
	if req.UserInput == "" {
		return nil, validationError("target user is required")
	}
	req.InitiatedBy = a.c.initiatedBy()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Message: err.Error(), Class: ClassGeneric, Err: err}
	}
	resp, err := a.c.NewRequest(ctx, "POST", path, bytes.NewReader(body), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[ActionResult](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Ban permanently removes a member from the group.
func (a *ActionsAPI) Ban(ctx context.Context, groupID int64, userInput, reason string) (*ActionResult, error) {
	return a.post(ctx, "/actions/ban", actionRequest{GroupID: groupID, UserInput: userInput, Reason: reason})
}

// Kick removes a member without banning rejoin.
func (a *ActionsAPI) Kick(ctx context.Context, groupID int64, userInput, reason string) (*ActionResult, error) {
	return a.post(ctx, "/actions/kick", actionRequest{GroupID: groupID, UserInput: userInput, Reason: reason})
}

// Mute silences a member, durationSeconds <= 0 meaning indefinitely.
func (a *ActionsAPI) Mute(ctx context.Context, groupID int64, userInput string, durationSeconds int64, reason string) (*ActionResult, error) {
	return a.post(ctx, "/actions/mute", actionRequest{GroupID: groupID, UserInput: userInput, Duration: durationSeconds, Reason: reason})
}

// Unmute lifts a mute.
func (a *ActionsAPI) Unmute(ctx context.Context, groupID int64, userInput string) (*ActionResult, error) {
	return a.post(ctx, "/actions/unmute", actionRequest{GroupID: groupID, UserInput: userInput})
}

// Restrict limits what a member may post.
func (a *ActionsAPI) Restrict(ctx context.Context, groupID int64, userInput string, durationSeconds int64, reason string) (*ActionResult, error) {
	return a.post(ctx, "/actions/restrict", actionRequest{GroupID: groupID, UserInput: userInput, Duration: durationSeconds, Reason: reason})
}

// Unrestrict lifts a restriction.
func (a *ActionsAPI) Unrestrict(ctx context.Context, groupID int64, userInput string) (*ActionResult, error) {
	return a.post(ctx, "/actions/unrestrict", actionRequest{GroupID: groupID, UserInput: userInput})
}

// Warn records a warning against a member.
func (a *ActionsAPI) Warn(ctx context.Context, groupID int64, userInput, reason string) (*ActionResult, error) {
	return a.post(ctx, "/actions/warn", actionRequest{GroupID: groupID, UserInput: userInput, Reason: reason})
}

// Promote grants a member admin rights, optionally with a custom title.
func (a *ActionsAPI) Promote(ctx context.Context, groupID int64, userInput, title string) (*ActionResult, error) {
	return a.post(ctx, "/actions/promote", actionRequest{GroupID: groupID, UserInput: userInput, Title: title})
}

// Demote revokes admin rights.
func (a *ActionsAPI) Demote(ctx context.Context, groupID int64, userInput string) (*ActionResult, error) {
	return a.post(ctx, "/actions/demote", actionRequest{GroupID: groupID, UserInput: userInput})
}

// Unban lifts a ban.
func (a *ActionsAPI) Unban(ctx context.Context, groupID int64, userInput string) (*ActionResult, error) {
	return a.post(ctx, "/actions/unban", actionRequest{GroupID: groupID, UserInput: userInput})
}

type batchRequest struct {
	Actions []BatchItem `json:"actions"`
}

// Batch executes several actions in one call. Items inherit the stored
// operator identifier.
func (a *ActionsAPI) Batch(ctx context.Context, items []BatchItem) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, validationError("at least one action is required")
	}
	initiatedBy := a.c.initiatedBy()
	prepared := make([]BatchItem, len(items))
	for i, item := range items {
		if item.GroupID == 0 || item.UserInput == "" || item.ActionType == "" {
			return nil, validationError("batch item %d is incomplete", i)
		}
		item.InitiatedBy = initiatedBy
		prepared[i] = item
	}
	body, err := json.Marshal(batchRequest{Actions: prepared})
	if err != nil {
		return nil, &Error{Message: err.Error(), Class: ClassGeneric, Err: err}
	}
	resp, err := a.c.NewRequest(ctx, "POST", "/actions/batch", bytes.NewReader(body), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[BatchResult](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Status looks up one action by identifier.
func (a *ActionsAPI) Status(ctx context.Context, actionID string) (*Action, error) {
	if actionID == "" {
		return nil, validationError("action id is required")
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/actions/status/"+actionID, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[Action](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// UserHistory lists actions initiated against a user across groups.
func (a *ActionsAPI) UserHistory(ctx context.Context, userID int64, limit int, filters *FilterOptions) (*Paginated[Action], error) {
	if userID == 0 {
		return nil, validationError("user id is required")
	}
	if limit <= 0 {
		limit = 100
	}
	params := filters.params()
	params["user_id"] = strconv.FormatInt(userID, 10)
	params["limit"] = strconv.Itoa(limit)
	resp, err := a.c.NewRequest(ctx, "GET", "/actions/user-history", nil, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[Paginated[Action]](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// GroupStats returns per-group action counters.
func (a *ActionsAPI) GroupStats(ctx context.Context, groupID int64) (*GroupStats, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/actions/group-stats", nil,
		map[string]string{"group_id": strconv.FormatInt(groupID, 10)})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[GroupStats](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

package api

import (
	"context"
	"strconv"
)

// GroupsAPI covers group and member browsing.
type GroupsAPI struct {
	c *Client
}

// List returns a page of managed groups.
func (a *GroupsAPI) List(ctx context.Context, page, pageSize int, filters *FilterOptions) (*GroupList, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	params := filters.params()
	params["page"] = strconv.Itoa(page)
	params["page_size"] = strconv.Itoa(pageSize)

	resp, err := a.c.NewRequest(ctx, "GET", "/groups/list", nil, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[GroupList](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Get returns one group.
func (a *GroupsAPI) Get(ctx context.Context, groupID int64) (*Group, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/groups/"+strconv.FormatInt(groupID, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[Group](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Stats returns aggregated moderation counters for the group.
func (a *GroupsAPI) Stats(ctx context.Context, groupID int64, period Period) (*GroupStats, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if period == "" {
		period = PeriodWeek
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/groups/"+strconv.FormatInt(groupID, 10)+"/stats", nil,
		map[string]string{"period": string(period)})
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

// Members returns a page of group members.
func (a *GroupsAPI) Members(ctx context.Context, groupID int64, page, pageSize int) (*Paginated[Member], error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/groups/"+strconv.FormatInt(groupID, 10)+"/members", nil,
		map[string]string{"page": strconv.Itoa(page), "page_size": strconv.Itoa(pageSize)})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[Paginated[Member]](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// SearchMembers matches members by name or identifier within a group.
func (a *GroupsAPI) SearchMembers(ctx context.Context, groupID int64, query string) ([]Member, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if query == "" {
		return nil, validationError("search query is required")
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/groups/"+strconv.FormatInt(groupID, 10)+"/members/search", nil,
		map[string]string{"q": query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse[[]Member](resp)
}

// Member returns one member record.
func (a *GroupsAPI) Member(ctx context.Context, groupID, userID int64) (*Member, error) {
	if groupID == 0 || userID == 0 {
		return nil, validationError("group id and user id are required")
	}
	resp, err := a.c.NewRequest(ctx, "GET",
		"/groups/"+strconv.FormatInt(groupID, 10)+"/members/"+strconv.FormatInt(userID, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[Member](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// MemberHistory lists the moderation actions applied to a member.
func (a *GroupsAPI) MemberHistory(ctx context.Context, groupID, userID int64, limit int) ([]Action, error) {
	if groupID == 0 || userID == 0 {
		return nil, validationError("group id and user id are required")
	}
	if limit <= 0 {
		limit = 50
	}
	resp, err := a.c.NewRequest(ctx, "GET",
		"/groups/"+strconv.FormatInt(groupID, 10)+"/members/"+strconv.FormatInt(userID, 10)+"/history", nil,
		map[string]string{"limit": strconv.Itoa(limit)})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse[[]Action](resp)
}

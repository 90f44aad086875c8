package api

import (
	"context"
	"strconv"
)

// AnalyticsAPI covers dashboard aggregates.
type AnalyticsAPI struct {
	c *Client
}

// System returns platform-wide aggregates. Superadmin only on the backend side.
func (a *AnalyticsAPI) System(ctx context.Context, period Period) (*SystemAnalytics, error) {
	if period == "" {
		period = PeriodWeek
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/analytics/system", nil,
		map[string]string{"period": string(period)})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[SystemAnalytics](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Group returns aggregates for one group.
func (a *AnalyticsAPI) Group(ctx context.Context, groupID int64, period Period) (*GroupStats, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if period == "" {
		period = PeriodWeek
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/analytics/groups/"+strconv.FormatInt(groupID, 10), nil,
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

// Trends returns the daily action counts over the window, optionally scoped to
// one group.
func (a *AnalyticsAPI) Trends(ctx context.Context, days int, groupID int64) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	params := map[string]string{"days": strconv.Itoa(days)}
	if groupID != 0 {
		params["group_id"] = strconv.FormatInt(groupID, 10)
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/analytics/trends", nil, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse[[]TrendPoint](resp)
}

// TopUsers ranks users by moderation activity. sortBy is one of
// actions/warnings/bans, defaulting to actions.
func (a *AnalyticsAPI) TopUsers(ctx context.Context, limit int, sortBy string) ([]TopUser, error) {
	if limit <= 0 {
		limit = 10
	}
	if sortBy == "" {
		sortBy = "actions"
	}
	resp, err := a.c.NewRequest(ctx, "GET", "/analytics/top-users", nil,
		map[string]string{"limit": strconv.Itoa(limit), "sort_by": sortBy})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse[[]TopUser](resp)
}

package api

import (
	"strconv"
	"time"
)

// Period selects the aggregation window for statistics endpoints.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Group is a managed chat group.
type Group struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	MemberCount int            `json:"member_count"`
	AdminCount  int            `json:"admin_count"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	Settings    *GroupSettings `json:"settings,omitempty"`
	Stats       *GroupStats    `json:"stats,omitempty"`
}

type GroupSettings struct {
	AutoModerationEnabled bool   `json:"auto_moderation_enabled"`
	StrictMode            bool   `json:"strict_mode"`
	WelcomeMessageEnabled bool   `json:"welcome_message_enabled"`
	WelcomeMessage        string `json:"welcome_message,omitempty"`
	AntispamEnabled       bool   `json:"antispam_enabled"`
	ProfileRequired       bool   `json:"profile_required"`
}

type GroupStats struct {
	TotalBans       int    `json:"total_bans"`
	TotalKicks      int    `json:"total_kicks"`
	TotalMutes      int    `json:"total_mutes"`
	TotalWarnings   int    `json:"total_warnings"`
	TotalRestricts  int    `json:"total_restricts"`
	ActionsToday    int    `json:"actions_today"`
	ActionsThisWeek int    `json:"actions_this_week"`
	LastActionAt    string `json:"last_action_at,omitempty"`
}

// GroupList is the paginated group listing envelope.
type GroupList struct {
	Success  bool    `json:"success"`
	Groups   []Group `json:"groups"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// MemberStatus is the moderation state of a group member.
type MemberStatus string

const (
	MemberActive     MemberStatus = "active"
	MemberBanned     MemberStatus = "banned"
	MemberMuted      MemberStatus = "muted"
	MemberRestricted MemberStatus = "restricted"
	MemberWarned     MemberStatus = "warned"
	MemberLeft       MemberStatus = "left"
)

type Member struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"user_id"`
	GroupID      int64         `json:"group_id"`
	Username     string        `json:"username,omitempty"`
	FirstName    string        `json:"first_name,omitempty"`
	IsAdmin      bool          `json:"is_admin"`
	IsSuperadmin bool          `json:"is_superadmin"`
	JoinedAt     string        `json:"joined_at"`
	Status       MemberStatus  `json:"status"`
	Warnings     int           `json:"warnings"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
	LastAction   *Action       `json:"last_action,omitempty"`
}

type Restriction struct {
	Type     string `json:"type"`
	Reason   string `json:"reason,omitempty"`
	Until    string `json:"until,omitempty"`
	IssuedAt string `json:"issued_at"`
	IssuedBy int64  `json:"issued_by"`
}

// ActionType enumerates the moderation actions the console can issue.
type ActionType string

const (
	ActionBan        ActionType = "ban"
	ActionKick       ActionType = "kick"
	ActionMute       ActionType = "mute"
	ActionUnmute     ActionType = "unmute"
	ActionRestrict   ActionType = "restrict"
	ActionUnrestrict ActionType = "unrestrict"
	ActionWarn       ActionType = "warn"
	ActionPromote    ActionType = "promote"
	ActionDemote     ActionType = "demote"
	ActionUnban      ActionType = "unban"
)

type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
	ActionCancelled ActionStatus = "cancelled"
)

type Action struct {
	ID          string       `json:"id,omitempty"`
	ActionType  ActionType   `json:"action_type"`
	GroupID     int64        `json:"group_id"`
	UserID      int64        `json:"user_id"`
	Username    string       `json:"username,omitempty"`
	InitiatedBy int64        `json:"initiated_by"`
	Reason      string       `json:"reason,omitempty"`
	Duration    int64        `json:"duration,omitempty"`
	Status      ActionStatus `json:"status"`
	CreatedAt   string       `json:"created_at"`
	ExpiresAt   string       `json:"expires_at,omitempty"`
}

// ActionResult is the per-action backend acknowledgement.
type ActionResult struct {
	Success  bool   `json:"success"`
	ActionID string `json:"action_id"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// BatchItem is one entry of a batch moderation request.
type BatchItem struct {
	GroupID     int64      `json:"group_id"`
	UserInput   string     `json:"user_input"`
	ActionType  ActionType `json:"action_type"`
	Reason      string     `json:"reason,omitempty"`
	Duration    int64      `json:"duration,omitempty"`
	InitiatedBy int64      `json:"initiated_by"`
}

type BatchResult struct {
	Success    bool           `json:"success"`
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []ActionResult `json:"results"`
}

// Paginated is the standard list envelope for member and action queries.
type Paginated[T any] struct {
	Success    bool `json:"success"`
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
}

// FilterOptions narrow listing endpoints. Zero values are omitted from the
// query string.
type FilterOptions struct {
	ActionType ActionType `json:"action_type,omitempty"`
	Status     string     `json:"status,omitempty"`
	GroupID    int64      `json:"group_id,omitempty"`
	UserID     int64      `json:"user_id,omitempty"`
	DateFrom   string     `json:"date_from,omitempty"`
	DateTo     string     `json:"date_to,omitempty"`
	SortBy     string     `json:"sort_by,omitempty"`
	SortOrder  string     `json:"sort_order,omitempty"`
}

func (f *FilterOptions) params() map[string]string {
	out := map[string]string{}
	if f == nil {
		return out
	}
	if f.ActionType != "" {
		out["action_type"] = string(f.ActionType)
	}
	if f.Status != "" {
		out["status"] = f.Status
	}
	if f.GroupID != 0 {
		out["group_id"] = strconv.FormatInt(f.GroupID, 10)
	}
	if f.UserID != 0 {
		out["user_id"] = strconv.FormatInt(f.UserID, 10)
	}
	if f.DateFrom != "" {
		out["date_from"] = f.DateFrom
	}
	if f.DateTo != "" {
		out["date_to"] = f.DateTo
	}
	if f.SortBy != "" {
		out["sort_by"] = f.SortBy
	}
	if f.SortOrder != "" {
		out["sort_order"] = f.SortOrder
	}
	return out
}

// SystemAnalytics is the system-wide dashboard aggregate.
type SystemAnalytics struct {
	Timestamp    time.Time `json:"timestamp"`
	UsersCount   int       `json:"users_count"`
	GroupsCount  int       `json:"groups_count"`
	ActiveGroups int       `json:"active_groups"`
	TotalActions int       `json:"total_actions"`
	ActionsToday int       `json:"actions_today"`
	RecentAction []Action  `json:"recent_actions,omitempty"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TopUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Actions  int    `json:"actions"`
	Warnings int    `json:"warnings"`
	Bans     int    `json:"bans"`
}

type HealthInfo struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type ServiceInfo struct {
	Name    string `json:"name"`
	Time    string `json:"time"`
	Version string `json:"version"`
}

// ParsedUser is the resolution of a free-form user reference.
type ParsedUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
}

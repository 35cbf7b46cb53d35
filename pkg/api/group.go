package api

import (
	"github.com/shopspring/decimal"
)

type Group struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedBy string        `json:"created_by"`
	Members   []GroupMember `json:"members"`
	CreatedAt int64         `json:"created_at"`
}

type GroupMember struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type AddGroupMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	// Role defaults to "member".
	Role string `json:"role,omitempty"`
}

type AddGroupMemberResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type Settlement struct {
	ID           string `json:"id"`
	GroupID      string `json:"group_id"`
	PayerID      string `json:"payer_id"`
	PayeeID      string `json:"payee_id"`
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	CreatedBy    string `json:"created_by"`
	Note         string `json:"note,omitempty"`
	SettledAt    int64  `json:"settled_at"`
}

type CreateSettlementRequest struct {
	GroupID string `json:"group_id"`
	// PayerID defaults to the caller.
	PayerID      string          `json:"payer_id,omitempty"`
	PayeeID      string          `json:"payee_id"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	Note         string          `json:"note,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

// MemberBalance is a member's net position; positive means the member is owed.
type MemberBalance struct {
	UserID     string `json:"user_id"`
	TotalOwed  string `json:"total_owed"`
	TotalOwes  string `json:"total_owes"`
	NetBalance string `json:"net_balance"`
}

// Debt is one payment that, together with the others, settles the group.
type Debt struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type GetBalancesResponse struct {
	Balances []MemberBalance `json:"balances"`
	Debts    []Debt          `json:"debts"`
}

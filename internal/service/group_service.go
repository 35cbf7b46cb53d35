package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/internal/calculator"
	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
	"github.com/mmynk/splitengine/pkg/api"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store           storage.Store
	defaultCurrency string
	idempotency     idempotency
}

// NewGroupService creates a new GroupService with the given storage backend.
// Settlement idempotency keys are honored for idempotencyTTL.
func NewGroupService(store storage.Store, defaultCurrency string, idempotencyTTL time.Duration) *GroupService {
	return &GroupService{
		store:           store,
		defaultCurrency: defaultCurrency,
		idempotency:     newIdempotency(store, idempotencyTTL),
	}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("CreateGroup request received", "name", name, "user_id", userID)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingGroupName)
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
		Members:   []models.GroupMember{{UserID: userID, Role: models.RoleOwner}},
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// AddGroupMember adds an existing user to a group the caller belongs to.
func (s *GroupService) AddGroupMember(ctx context.Context, req *connect.Request[api.AddGroupMemberRequest]) (*connect.Response[api.AddGroupMemberResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	slog.Info("AddGroupMember request received",
		"group_id", msg.GroupID,
		"member_id", msg.UserID,
		"user_id", userID,
	)

	if _, err := groupForMember(ctx, s.store, msg.GroupID, userID); err != nil {
		return nil, err
	}

	role := models.Role(msg.Role)
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid role %q", msg.Role))
	}

	if _, err := s.store.GetUserByID(ctx, msg.UserID); err != nil {
		return nil, toConnectError(err)
	}

	err = s.store.AddGroupMember(ctx, msg.GroupID, models.GroupMember{UserID: msg.UserID, Role: role})
	if err != nil {
		slog.Error("AddGroupMember failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	// Fetch the group again to return the full member list
	group, err := s.store.GetGroup(ctx, msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Group member added", "group_id", group.ID, "member_id", msg.UserID, "role", role)

	return connect.NewResponse(&api.AddGroupMemberResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(out))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// CreateSettlement records a payment from one member to another. Like
// CreateExpense it honors the Idempotency-Key header.
func (s *GroupService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	key, err := idempotencyKey(req.Header())
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	payerID := msg.PayerID
	if payerID == "" {
		payerID = userID
	}

	slog.Info("CreateSettlement request received",
		"group_id", msg.GroupID,
		"payer_id", payerID,
		"payee_id", msg.PayeeID,
		"amount", calculator.Describe(msg.Amount),
	)

	group, err := groupForMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	if payerID == msg.PayeeID {
		return nil, connect.NewError(connect.CodeInvalidArgument, errSelfSettlement)
	}
	for _, id := range []string{payerID, msg.PayeeID} {
		if !group.HasMember(id) {
			return nil, toConnectError(fmt.Errorf("user %s: %w", id, errNotMember))
		}
	}

	amount, err := calculator.NormalizeAmount(msg.Amount)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("settlement amount: %w", err))
	}

	currency, err := normalizeCurrency(msg.CurrencyCode, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:      group.ID,
		PayerID:      payerID,
		PayeeID:      msg.PayeeID,
		Amount:       amount,
		CurrencyCode: currency,
		CreatedBy:    userID,
		Note:         strings.TrimSpace(msg.Note),
		SettledAt:    time.Now().Unix(),
	}

	replay, pending, err := s.idempotency.begin(ctx, userID, key, req.Spec().Procedure, settlementHash(settlement))
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return s.replaySettlement(ctx, replay)
	}

	if err := s.store.CreateSettlement(ctx, settlement, pending); err != nil {
		slog.Error("CreateSettlement failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", group.ID)

	return connect.NewResponse(&api.CreateSettlementResponse{
		Settlement: toAPISettlement(settlement),
	}), nil
}

// replaySettlement answers a retried CreateSettlement with the stored settlement.
func (s *GroupService) replaySettlement(ctx context.Context, record *models.IdempotencyKey) (*connect.Response[api.CreateSettlementResponse], error) {
	settlement, err := s.store.GetSettlement(ctx, record.ResourceID)
	if err != nil {
		slog.Error("CreateSettlement replay failed", "settlement_id", record.ResourceID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("CreateSettlement replayed", "settlement_id", settlement.ID, "idempotency_key", record.Key)

	resp := connect.NewResponse(&api.CreateSettlementResponse{Settlement: toAPISettlement(settlement)})
	markReplayed(resp.Header())
	return resp, nil
}

// settlementHash fingerprints a settlement by the fields the caller chose.
func settlementHash(settlement *models.Settlement) string {
	return requestHash(
		settlement.GroupID,
		settlement.PayerID,
		settlement.PayeeID,
		calculator.FormatAmount(settlement.Amount),
		settlement.CurrencyCode,
		settlement.Note,
	)
}

// GetBalances nets the group's ledger into per-member balances and the
// payments that would settle them. Every member appears in the balances,
// including members with nothing owed either way.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListLedgerEntries(ctx, group.ID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	obligations := make([]calculator.Obligation, len(entries))
	for i, e := range entries {
		obligations[i] = calculator.Obligation{Debtor: e.DebtorID, Creditor: e.CreditorID, Amount: e.Amount}
	}

	balances, debts, err := calculator.CalculateGroupBalances(obligations)
	if err != nil {
		slog.Error("GetBalances found a corrupt ledger", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &api.GetBalancesResponse{
		Balances: withIdleMembers(toAPIBalances(balances), group.MemberIDs()),
		Debts:    make([]api.Debt, len(debts)),
	}
	for i, d := range debts {
		resp.Debts[i] = api.Debt{From: d.From, To: d.To, Amount: calculator.FormatAmount(d.Amount)}
	}

	slog.Info("GetBalances successful", "group_id", group.ID, "entries", len(entries), "debts", len(debts))

	return connect.NewResponse(resp), nil
}

func toAPIBalances(balances []calculator.MemberBalance) []api.MemberBalance {
	out := make([]api.MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = api.MemberBalance{
			UserID:     b.MemberID,
			TotalOwed:  calculator.FormatAmount(b.TotalOwed),
			TotalOwes:  calculator.FormatAmount(b.TotalOwes),
			NetBalance: calculator.FormatAmount(b.NetBalance),
		}
	}
	return out
}

// withIdleMembers adds a zero balance for each member absent from balances
// and keeps the result sorted by user ID.
func withIdleMembers(balances []api.MemberBalance, memberIDs []string) []api.MemberBalance {
	zero := calculator.FormatAmount(calculator.FromMinorUnits(0))
	for _, id := range memberIDs {
		if slices.ContainsFunc(balances, func(b api.MemberBalance) bool { return b.UserID == id }) {
			continue
		}
		balances = append(balances, api.MemberBalance{UserID: id, TotalOwed: zero, TotalOwes: zero, NetBalance: zero})
	}
	slices.SortFunc(balances, func(a, b api.MemberBalance) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return balances
}

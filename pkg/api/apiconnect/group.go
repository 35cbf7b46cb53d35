package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/pkg/api"
)

// GroupServiceHandler manages groups, settlements and balances.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	AddGroupMember(context.Context, *connect.Request[api.AddGroupMemberRequest]) (*connect.Response[api.AddGroupMemberResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route(GroupServiceName, map[string]http.Handler{
		GroupServiceCreateGroupProcedure:      connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceAddGroupMemberProcedure:   connect.NewUnaryHandler(GroupServiceAddGroupMemberProcedure, svc.AddGroupMember, opts...),
		GroupServiceGetGroupProcedure:         connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:       connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceCreateSettlementProcedure: connect.NewUnaryHandler(GroupServiceCreateSettlementProcedure, svc.CreateSettlement, opts...),
		GroupServiceGetBalancesProcedure:      connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...),
	})
}

// GroupServiceClient is a client for the splitengine.v1.GroupService service.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	AddGroupMember(context.Context, *connect.Request[api.AddGroupMemberRequest]) (*connect.Response[api.AddGroupMemberResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewGroupServiceClient constructs a client for the GroupService.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = trimBaseURL(baseURL)
	opts = clientOptions(opts)
	return &groupServiceClient{
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](
			httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		addGroupMember: connect.NewClient[api.AddGroupMemberRequest, api.AddGroupMemberResponse](
			httpClient, baseURL+GroupServiceAddGroupMemberProcedure, opts...),
		getGroup: connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](
			httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups: connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](
			httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		createSettlement: connect.NewClient[api.CreateSettlementRequest, api.CreateSettlementResponse](
			httpClient, baseURL+GroupServiceCreateSettlementProcedure, opts...),
		getBalances: connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](
			httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
	}
}

type groupServiceClient struct {
	createGroup      *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	addGroupMember   *connect.Client[api.AddGroupMemberRequest, api.AddGroupMemberResponse]
	getGroup         *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups       *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	createSettlement *connect.Client[api.CreateSettlementRequest, api.CreateSettlementResponse]
	getBalances      *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddGroupMember(ctx context.Context, req *connect.Request[api.AddGroupMemberRequest]) (*connect.Response[api.AddGroupMemberResponse], error) {
	return c.addGroupMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

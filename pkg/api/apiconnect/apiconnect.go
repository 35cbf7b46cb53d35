// Package apiconnect wires the splitengine services to Connect handlers and
// clients. Every handler and client speaks the JSON codec from package api.
package apiconnect

import (
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/pkg/api"
)

const (
	SplitServiceName   = "splitengine.v1.SplitService"
	ExpenseServiceName = "splitengine.v1.ExpenseService"
	GroupServiceName   = "splitengine.v1.GroupService"
	AuthServiceName    = "splitengine.v1.AuthService"
)

// Fully-qualified procedure names, used as request paths.
const (
	SplitServiceComputeSplitProcedure = "/" + SplitServiceName + "/ComputeSplit"

	ExpenseServiceCreateExpenseProcedure = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure    = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceListExpensesProcedure  = "/" + ExpenseServiceName + "/ListExpenses"

	GroupServiceCreateGroupProcedure      = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceAddGroupMemberProcedure   = "/" + GroupServiceName + "/AddGroupMember"
	GroupServiceGetGroupProcedure         = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure       = "/" + GroupServiceName + "/ListGroups"
	GroupServiceCreateSettlementProcedure = "/" + GroupServiceName + "/CreateSettlement"
	GroupServiceGetBalancesProcedure      = "/" + GroupServiceName + "/GetBalances"

	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// Headers recognized on create calls.
const (
	// IdempotencyKeyHeader carries a client-chosen key that makes
	// CreateExpense and CreateSettlement safe to retry.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayedHeader is set to "true" on a response that returns a
	// resource created by an earlier request with the same key.
	IdempotentReplayedHeader = "Idempotent-Replayed"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

// route serves the procedure handlers of one service under its path prefix.
func route(serviceName string, procedures map[string]http.Handler) (string, http.Handler) {
	return "/" + serviceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := procedures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func trimBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

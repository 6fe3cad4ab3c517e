package common

// RequestIDHeaderName is the gRPC metadata key carrying a caller supplied
// request id. The server generates one when it is absent.
const RequestIDHeaderName = "x-request-id"

// MaxDelegationDepth bounds how many manager hops are followed when
// resolving status or configuration through a delegation chain.
const MaxDelegationDepth = 8

// AccessTokenHeaderName is the gRPC metadata key carrying the admin token.
const AccessTokenHeaderName = "access_token"

package common

// AccessTokenHeaderName is the gRPC metadata key carrying a member's token.
const AccessTokenHeaderName = "access_token"

// DateLayout keys completion history by local calendar day.
const DateLayout = "2006-01-02"

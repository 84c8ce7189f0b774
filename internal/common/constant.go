package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MaxUploadSize is the default cap on a single uploaded payload (10 MiB).
const MaxUploadSize int64 = 10 << 20

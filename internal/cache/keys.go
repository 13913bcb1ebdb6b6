package cache

import "strings"

const (
	GlobalKeyPrefix = "induction"
)

// Service and object segments used across the application.
const (
	ServiceVideo      = "video"
	ServiceAuth       = "auth"
	ServiceInductions = "inductions"

	ObjectCompletion = "completion"
	ObjectRevoked    = "revoked"
	ObjectActiveList = "active"
)

// GenerateCacheKey builds prefix:service:object:identifier, with any params joined by "_" as a trailing segment.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// VideoCompletionKey is the hash holding completed chapter ids for one submission.
func VideoCompletionKey(submissionID string) string {
	return GenerateCacheKey(ServiceVideo, ObjectCompletion, submissionID)
}

// RevokedTokenKey marks a logged-out access token by its jti.
func RevokedTokenKey(tokenID string) string {
	return GenerateCacheKey(ServiceAuth, ObjectRevoked, tokenID)
}

// ActiveInductionsKey caches the learner-facing list of active inductions.
func ActiveInductionsKey() string {
	return GenerateCacheKey(ServiceInductions, ObjectActiveList, "all")
}

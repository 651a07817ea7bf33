package session

// Local storage keys, namespaced by user identifier where applicable.
const (
	sessionPointerKey = "subtrack_session"
	usersKey          = "subtrack_users"

	profileKeyPrefix  = "subtrack_user_"
	lastSyncKeyPrefix = "subtrack_last_sync_"
)

// BucketNames are the namespaced local data buckets gathered by SyncData.
var BucketNames = []string{
	"budget_pods",
	"transactions",
	"subscriptions",
	"investments",
	"notebooks",
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

func bucketKey(bucket, userID string) string {
	return "subtrack_" + bucket + "_" + userID
}

func lastSyncKey(userID string) string {
	return lastSyncKeyPrefix + userID
}

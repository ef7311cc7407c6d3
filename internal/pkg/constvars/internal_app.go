package constvars

type contextKey string

const (
	CONTEXT_REQUEST_ID_KEY           contextKey = "requestID"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY contextKey = "isClientRequestID"
)

const (
	URLParamFlowID     = "flowID"
	URLParamProviderID = "providerID"
)

// Mongo collections owned by the service.
const (
	MongoCollectionFlows             = "flows"
	MongoCollectionTransitionRecords = "transition_records"
	MongoCollectionRiskAssessments   = "risk_assessments"
	MongoCollectionPatientProfiles   = "patient_profiles"
	MongoCollectionProviders         = "providers"
)

// Redis key prefixes.
const (
	RedisKeyProviderDirectory    = "careflow:providers:directory"
	RedisKeyAbandonmentLeader    = "careflow:abandonment:leader"
	RedisProviderDirectoryTTLMin = 5
)

// AbandonmentSweeperActor is the triggeredBy identity of the background
// inactivity sweeper.
const AbandonmentSweeperActor = "system:abandonment_sweeper"

const ResponseUnknown = "unknown"

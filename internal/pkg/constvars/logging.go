package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingEndpointKey       = "endpoint"
	LoggingMethodKey         = "method"
	LoggingRemoteAddrKey     = "remote_addr"
	LoggingUserAgentKey      = "user_agent"
	LoggingQueryKey          = "query"
	LoggingStatusCodeKey     = "status_code"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"
	LoggingErrorTypeKey      = "error_type"
	LoggingOperationKey      = "operation"
	LoggingResponseCountKey  = "response_count"
	LoggingFlowIDKey         = "flow_id"
	LoggingPatientIDKey      = "patient_id"
	LoggingCategoryIDKey     = "category_id"
	LoggingProviderIDKey     = "provider_id"
	LoggingEventTypeKey      = "event_type"
	LoggingFromStatusKey     = "from_status"
	LoggingToStatusKey       = "to_status"
	LoggingFlowVersionKey    = "flow_version"
	LoggingRiskScoreKey      = "risk_score"
	LoggingRiskCategoryKey   = "risk_category"
	LoggingUrgentFlagsKey    = "urgent_flags"
	LoggingAssessmentIDKey   = "assessment_id"
	LoggingCandidateCountKey = "candidate_count"
	LoggingQueueNameKey      = "queue_name"
	LoggingRedisKey          = "redis_key"
	LoggingLockValueKey      = "lock_value"
	LoggingLockExpirationKey = "lock_expiration"
)

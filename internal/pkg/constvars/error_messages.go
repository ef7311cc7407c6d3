package constvars

// Client-facing messages. Kept deliberately vague for anything that is not
// the caller's fault.
const (
	ErrClientCannotProcessRequest          = "We cannot process your request, please try again"
	ErrClientSomethingWrongWithApplication = "Something went wrong with the application, please contact the administrator"
	ErrClientServerLongRespond             = "Server takes too long to respond, please try again"
	ErrClientFlowNotFound                  = "The requested patient journey could not be found"
	ErrClientFlowAlreadyActive             = "An active journey already exists for this patient and category"
	ErrClientFlowAlreadyTerminal           = "This patient journey has already been closed"
	ErrClientInvalidTransition             = "This action is not allowed at the current stage of the journey"
	ErrClientConcurrentModification        = "The journey was modified by another request, please retry"
	ErrClientProviderNotFound              = "The requested provider could not be found"
)

// Developer messages logged alongside the wrapped cause.
const (
	ErrDevValidationFailed           = "Request validation failed"
	ErrDevCannotParseJSON            = "Failed to parse JSON request body"
	ErrDevCannotMarshalJSON          = "Failed to marshal data to JSON"
	ErrDevServerDeadlineExceeded     = "Server deadline exceeded while processing request"
	ErrDevMissingRequestID           = "Request ID missing from request context"
	ErrDevFlowNotFound               = "Flow document not found"
	ErrDevFlowAlreadyActive          = "Active flow already exists for patient/category pair"
	ErrDevFlowTerminal               = "Flow is in a terminal status and accepts no further events"
	ErrDevFlowInvalidTransition      = "Event is not legal from the flow's current status"
	ErrDevFlowConcurrentModification = "Stored flow version no longer matches the version read"
	ErrDevFlowPersistence            = "Persistence store rejected the flow write"
	ErrDevURLParamValidationFailed   = "Failed to validate URL parameter: %s"
	ErrDevMongoDBFindDocument        = "MongoDB failed to find document"
	ErrDevMongoDBInsertDocument      = "MongoDB failed to insert document"
	ErrDevMongoDBUpdateDocument      = "MongoDB failed to update document"
	ErrDevMongoDBIterateDocuments    = "MongoDB failed to iterate documents"
	ErrDevRedisSetData               = "Redis failed to set data"
	ErrDevRedisGetData               = "Redis failed to get data"
	ErrDevRedisDeleteData            = "Redis failed to delete data"
	ErrDevRedisSetNX                 = "Redis failed to acquire lock via SETNX"
	ErrDevRedisUnlock                = "Redis failed to release lock"
	ErrDevRabbitMQPublishMessage     = "RabbitMQ failed to publish message to queue: %s"
	ErrDevRabbitMQOpenChannel        = "RabbitMQ failed to open channel"
	ErrDevProviderNotFound           = "Provider directory entry not found"
	ErrDevServerProcess              = "Server failed to process the request"
)

// CustomValidationErrorMessages maps validator tags to client phrasing.
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"oneof":    "must be one of: %s",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"uuid":     "must be a valid identifier",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
}

// TagsWithParams marks tags whose message carries the tag parameter.
var TagsWithParams = map[string]bool{
	"oneof": true,
	"min":   true,
	"max":   true,
	"gte":   true,
	"lte":   true,
}

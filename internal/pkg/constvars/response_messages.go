package constvars

const (
	FlowCreatedSuccessMessage        = "Successfully created patient journey"
	FlowEventAppliedSuccessMessage   = "Successfully applied event to patient journey"
	FlowRetrievedSuccessMessage      = "Successfully retrieved patient journey"
	RiskHistoryRetrievedSuccess      = "Successfully retrieved risk assessment history"
	TransitionsRetrievedSuccess      = "Successfully retrieved journey transitions"
	StuckFlowsRetrievedSuccess       = "Successfully retrieved stuck patient journeys"
	ProviderUpsertedSuccessMessage   = "Successfully saved provider directory entry"
	ProvidersRetrievedSuccessMessage = "Successfully retrieved provider directory"
)

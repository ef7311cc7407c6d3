package contracts

import (
	"careflow-service/internal/app/models"
	"context"
	"time"

	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/dto/responses"
)

// FlowUsecase is the orchestration surface consumed by the HTTP delivery
// layer. ApplyEvent is the sole mutating entry point for an existing flow.
type FlowUsecase interface {
	CreateFlow(ctx context.Context, request *requests.CreateFlowRequest) (*responses.Flow, error)
	ApplyEvent(ctx context.Context, flowID string, request *requests.FlowEventRequest) (*responses.ApplyEventResult, error)
	GetFlow(ctx context.Context, flowID string) (*responses.Flow, error)
	GetRiskHistory(ctx context.Context, flowID string) ([]responses.RiskAssessment, error)
	GetTransitions(ctx context.Context, flowID string) ([]responses.TransitionRecord, error)
	GetStuckFlows(ctx context.Context) ([]responses.Flow, error)
	AbandonInactiveFlows(ctx context.Context, inactiveFor time.Duration) (int, error)
}

// FlowRepository is the persistence boundary for flows and their append-only
// transition log. Implementations surface models.ErrConcurrentModification
// on a stale version and models.ErrFlowNotFound on a missing document;
// infrastructure failures are wrapped in models.ErrPersistence.
type FlowRepository interface {
	CreateFlow(ctx context.Context, flow *models.Flow) (string, error)
	FindFlowByID(ctx context.Context, flowID string) (*models.Flow, error)
	FindActiveFlowByPatientAndCategory(ctx context.Context, patientID, categoryID string) (*models.Flow, error)
	// UpdateFlowWithVersion persists the flow only when its stored version
	// still equals expectedVersion.
	UpdateFlowWithVersion(ctx context.Context, flow *models.Flow, expectedVersion int64) error
	AppendTransitionRecord(ctx context.Context, record *models.TransitionRecord) (string, error)
	FindTransitionsByFlowID(ctx context.Context, flowID string) ([]models.TransitionRecord, error)
	FindFlowsInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Flow, error)
	// FindStuckFlows returns flows whose latest transition record carries a
	// higher version than the flow document, the signature of a commit that
	// was interrupted between the trail write and the document write.
	FindStuckFlows(ctx context.Context) ([]models.Flow, error)
}

// RiskAssessmentRepository stores the append-only history of clinical
// judgment. Assessments are never updated or deleted.
type RiskAssessmentRepository interface {
	CreateAssessment(ctx context.Context, assessment *models.RiskAssessment) (string, error)
	FindAssessmentsByFlowID(ctx context.Context, flowID string) ([]models.RiskAssessment, error)
}

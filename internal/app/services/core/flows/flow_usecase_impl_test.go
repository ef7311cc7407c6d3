package flows

import (
	"careflow-service/internal/app/models"
	"careflow-service/internal/app/services/core/providers"
	"careflow-service/internal/app/services/core/risk"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/exceptions"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryFlowRepository struct {
	mu           sync.Mutex
	flows        map[string]models.Flow
	records      []models.TransitionRecord
	ops          []string
	beforeUpdate func(stored *models.Flow)
	beforeCreate func()
}

func newMemoryFlowRepository() *memoryFlowRepository {
	return &memoryFlowRepository{flows: make(map[string]models.Flow)}
}

func (r *memoryFlowRepository) CreateFlow(_ context.Context, flow *models.Flow) (string, error) {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index on (patientId, categoryId, active).
	for _, stored := range r.flows {
		if stored.PatientID == flow.PatientID && stored.CategoryID == flow.CategoryID && stored.Active {
			return "", models.ErrActiveFlowExists
		}
	}
	r.flows[flow.ID] = *flow
	r.ops = append(r.ops, "create_flow")
	return flow.ID, nil
}

func (r *memoryFlowRepository) FindFlowByID(_ context.Context, flowID string) (*models.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[flowID]
	if !ok {
		return nil, models.ErrFlowNotFound
	}
	return &flow, nil
}

func (r *memoryFlowRepository) FindActiveFlowByPatientAndCategory(_ context.Context, patientID, categoryID string) (*models.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, flow := range r.flows {
		if flow.PatientID == patientID && flow.CategoryID == categoryID && !flow.Status.IsTerminal() {
			match := flow
			return &match, nil
		}
	}
	return nil, nil
}

func (r *memoryFlowRepository) UpdateFlowWithVersion(_ context.Context, flow *models.Flow, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.flows[flow.ID]
	if !ok {
		return models.ErrFlowNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(&stored)
		r.flows[flow.ID] = stored
	}
	if stored.Version != expectedVersion {
		return models.ErrConcurrentModification
	}
	r.flows[flow.ID] = *flow
	r.ops = append(r.ops, "update_flow")
	return nil
}

func (r *memoryFlowRepository) AppendTransitionRecord(_ context.Context, record *models.TransitionRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	r.ops = append(r.ops, "append_record")
	return record.ID, nil
}

func (r *memoryFlowRepository) FindTransitionsByFlowID(_ context.Context, flowID string) ([]models.TransitionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.TransitionRecord
	for _, record := range r.records {
		if record.FlowID == flowID {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *memoryFlowRepository) FindStuckFlows(_ context.Context) ([]models.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]int64)
	for _, record := range r.records {
		if record.FlowVersion > latest[record.FlowID] {
			latest[record.FlowID] = record.FlowVersion
		}
	}
	var stuck []models.Flow
	for id, flow := range r.flows {
		if latest[id] > flow.Version {
			stuck = append(stuck, flow)
		}
	}
	return stuck, nil
}

func (r *memoryFlowRepository) FindFlowsInactiveSince(_ context.Context, cutoff time.Time) ([]models.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []models.Flow
	for _, flow := range r.flows {
		if !flow.Status.IsTerminal() && flow.LastActivityAt.Before(cutoff) {
			stale = append(stale, flow)
		}
	}
	return stale, nil
}

type memoryRiskRepository struct {
	mu          sync.Mutex
	assessments []models.RiskAssessment
}

func (r *memoryRiskRepository) CreateAssessment(_ context.Context, assessment *models.RiskAssessment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments = append(r.assessments, *assessment)
	return assessment.ID, nil
}

func (r *memoryRiskRepository) FindAssessmentsByFlowID(_ context.Context, flowID string) ([]models.RiskAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.RiskAssessment
	for _, assessment := range r.assessments {
		if assessment.SourceFlowID == flowID {
			matched = append(matched, assessment)
		}
	}
	return matched, nil
}

type memoryPatientRepository struct {
	profile *models.PatientProfile
}

func (r *memoryPatientRepository) FindProfileByPatientID(_ context.Context, _ string) (*models.PatientProfile, error) {
	return r.profile, nil
}

type memoryProviderRepository struct {
	providers map[string]models.Provider
}

func (r *memoryProviderRepository) UpsertProvider(_ context.Context, provider *models.Provider) error {
	r.providers[provider.ID] = *provider
	return nil
}

func (r *memoryProviderRepository) FindProviderByID(_ context.Context, providerID string) (*models.Provider, error) {
	provider, ok := r.providers[providerID]
	if !ok {
		return nil, nil
	}
	return &provider, nil
}

func (r *memoryProviderRepository) FindActiveProviders(_ context.Context) ([]models.Provider, error) {
	var active []models.Provider
	for _, provider := range r.providers {
		if provider.Active {
			active = append(active, provider)
		}
	}
	return active, nil
}

type memoryDirectory struct {
	repository *memoryProviderRepository
}

func (d *memoryDirectory) ActiveProviders(ctx context.Context) ([]models.Provider, error) {
	return d.repository.FindActiveProviders(ctx)
}

func (d *memoryDirectory) Invalidate(_ context.Context) error {
	return nil
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []models.OutboundEvent
	fail      bool
}

func (p *capturingPublisher) Publish(_ context.Context, event *models.OutboundEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, *event)
	return nil
}

type usecaseFixture struct {
	usecase   *flowUsecase
	flowRepo  *memoryFlowRepository
	riskRepo  *memoryRiskRepository
	providers *memoryProviderRepository
	publisher *capturingPublisher
	clock     fixedClock
}

func newUsecaseFixture() *usecaseFixture {
	clock := fixedClock{now: testNow}
	flowRepo := newMemoryFlowRepository()
	riskRepo := &memoryRiskRepository{}
	providerRepo := &memoryProviderRepository{providers: make(map[string]models.Provider)}
	publisher := &capturingPublisher{}

	machine := NewFlowStateMachine(
		risk.NewRiskScorer(risk.DefaultScoringTables(), clock, zap.NewNop()),
		providers.NewProviderMatcher(providers.DefaultMatchWeights(), zap.NewNop()),
		clock,
		zap.NewNop(),
	)

	usecase := NewFlowUsecase(
		flowRepo,
		riskRepo,
		&memoryPatientRepository{},
		providerRepo,
		&memoryDirectory{repository: providerRepo},
		machine,
		publisher,
		clock,
		zap.NewNop(),
	).(*flowUsecase)

	return &usecaseFixture{
		usecase:   usecase,
		flowRepo:  flowRepo,
		riskRepo:  riskRepo,
		providers: providerRepo,
		publisher: publisher,
		clock:     clock,
	}
}

func (f *usecaseFixture) seedFlow(status models.FlowStatus) *models.Flow {
	flow := baseFlow(status)
	f.flowRepo.flows[flow.ID] = *flow
	return flow
}

func intakeEventRequest() *requests.FlowEventRequest {
	number := 3.0
	return &requests.FlowEventRequest{
		Type:        string(models.EventIntakeSubmitted),
		TriggeredBy: "patient-1",
		IntakeSubmitted: &requests.IntakeSubmittedPayload{
			FormSubmissionRef: "form-1",
			Answers: []requests.IntakeAnswer{
				{Key: "pain_rating", Number: &number},
			},
		},
	}
}

func TestCreateFlowRejectsSecondActiveFlow(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	first, err := fixture.usecase.CreateFlow(ctx, &requests.CreateFlowRequest{PatientID: "patient-1", CategoryID: "category-1"})
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusCategorySelected, first.Status)
	assert.Equal(t, int64(1), first.Version)

	_, err = fixture.usecase.CreateFlow(ctx, &requests.CreateFlowRequest{PatientID: "patient-1", CategoryID: "category-1"})
	require.Error(t, err)
	var custom *exceptions.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, constvars.StatusConflict, custom.StatusCode)
}

func TestCreateFlowConcurrentDuplicateFailsAtInsert(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	// Hold both callers after the existence check so each has passed it
	// before either insert lands; the insert-time uniqueness guard must let
	// exactly one through.
	var arrived, done sync.WaitGroup
	release := make(chan struct{})
	arrived.Add(2)
	fixture.flowRepo.beforeCreate = func() {
		arrived.Done()
		<-release
	}

	errs := make([]error, 2)
	done.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer done.Done()
			_, errs[i] = fixture.usecase.CreateFlow(ctx, &requests.CreateFlowRequest{PatientID: "patient-1", CategoryID: "category-1"})
		}(i)
	}
	arrived.Wait()
	close(release)
	done.Wait()

	failures := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		var custom *exceptions.CustomError
		require.ErrorAs(t, err, &custom)
		assert.Equal(t, constvars.StatusConflict, custom.StatusCode)
		failures++
	}
	assert.Equal(t, 1, failures, "exactly one create wins the race")

	active := 0
	for _, flow := range fixture.flowRepo.flows {
		if flow.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestCreateFlowAllowsDifferentCategory(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	_, err := fixture.usecase.CreateFlow(ctx, &requests.CreateFlowRequest{PatientID: "patient-1", CategoryID: "category-1"})
	require.NoError(t, err)
	_, err = fixture.usecase.CreateFlow(ctx, &requests.CreateFlowRequest{PatientID: "patient-1", CategoryID: "category-2"})
	assert.NoError(t, err)
}

func TestApplyEventPersistsTrailBeforeFlowDocument(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusIntakeInProgress)

	result, err := fixture.usecase.ApplyEvent(ctx, "flow-1", intakeEventRequest())

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusRiskEvaluated, result.Flow.Status)

	require.Len(t, fixture.flowRepo.ops, 3)
	assert.Equal(t, []string{"append_record", "append_record", "update_flow"}, fixture.flowRepo.ops)
	require.Len(t, fixture.riskRepo.assessments, 1)
	assert.Equal(t, "flow-1", fixture.riskRepo.assessments[0].SourceFlowID)
}

func TestApplyEventStaleVersionLosesRace(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusCategorySelected)

	// A concurrent writer bumps the stored version between the read and the
	// conditional update; this call must surface a retryable conflict.
	fixture.flowRepo.beforeUpdate = func(stored *models.Flow) {
		stored.Version++
		fixture.flowRepo.beforeUpdate = nil
	}

	_, err := fixture.usecase.ApplyEvent(ctx, "flow-1", &requests.FlowEventRequest{
		Type:        string(models.EventIntakeStarted),
		TriggeredBy: "patient-1",
	})

	require.Error(t, err)
	var custom *exceptions.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, constvars.StatusConflict, custom.StatusCode)

	stored := fixture.flowRepo.flows["flow-1"]
	assert.Equal(t, models.FlowStatusCategorySelected, stored.Status, "loser must not overwrite the winner")
}

func TestApplyEventInvalidTransitionLeavesFlowUnchanged(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusCategorySelected)

	_, err := fixture.usecase.ApplyEvent(ctx, "flow-1", &requests.FlowEventRequest{
		Type:        string(models.EventConsultationScheduled),
		TriggeredBy: "scheduler-1",
		ConsultationScheduled: &requests.ConsultationScheduledPayload{
			ConsultationRef: "consult-1",
			ScheduledFor:    testNow.Add(time.Hour),
		},
	})

	require.Error(t, err)
	var custom *exceptions.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, constvars.StatusUnprocessableEntity, custom.StatusCode)

	stored := fixture.flowRepo.flows["flow-1"]
	assert.Equal(t, models.FlowStatusCategorySelected, stored.Status)
	assert.Equal(t, int64(3), stored.Version)
	assert.Empty(t, fixture.flowRepo.records)
}

func TestApplyEventUrgentIntakePublishesAfterCommit(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusIntakeInProgress)

	request := intakeEventRequest()
	request.IntakeSubmitted.Answers = append(request.IntakeSubmitted.Answers, requests.IntakeAnswer{
		Key:  "self_harm_thoughts",
		Text: "sometimes",
	})

	result, err := fixture.usecase.ApplyEvent(ctx, "flow-1", request)

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusUrgentEscalated, result.Flow.Status)
	require.Len(t, result.Events, 1)
	assert.Equal(t, models.OutboundUrgentCaseRaised, result.Events[0].Type)

	require.Len(t, fixture.publisher.published, 1)
	assert.Equal(t, models.OutboundUrgentCaseRaised, fixture.publisher.published[0].Type)
}

func TestApplyEventPublishFailureDoesNotFailTransition(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusConsultationCompleted)
	fixture.publisher.fail = true

	result, err := fixture.usecase.ApplyEvent(ctx, "flow-1", &requests.FlowEventRequest{
		Type:        string(models.EventFlowClosed),
		TriggeredBy: "system",
	})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusCompleted, result.Flow.Status)
	require.Len(t, result.Events, 1, "events are still returned synchronously")

	stored := fixture.flowRepo.flows["flow-1"]
	assert.Equal(t, models.FlowStatusCompleted, stored.Status)
}

func TestApplyEventAutoAssignUsesDirectory(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	flow := evaluatedFlow(models.FlowStatusRiskEvaluated)
	fixture.flowRepo.flows[flow.ID] = *flow
	fixture.providers.providers["prov-1"] = models.Provider{
		ID: "prov-1", Specializations: []string{"anxiety"}, Rating: 4.8, EstimatedWaitMinutes: 60, Active: true,
	}

	result, err := fixture.usecase.ApplyEvent(ctx, flow.ID, &requests.FlowEventRequest{
		Type:        string(models.EventProviderAssigned),
		TriggeredBy: "router-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "prov-1", result.Flow.AssignedProviderID)
	require.Len(t, result.Events, 1)
	assert.Equal(t, models.OutboundProviderAssignmentRecommended, result.Events[0].Type)
}

func TestApplyEventManualAssignUnknownProvider(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	flow := evaluatedFlow(models.FlowStatusRiskEvaluated)
	fixture.flowRepo.flows[flow.ID] = *flow

	_, err := fixture.usecase.ApplyEvent(ctx, flow.ID, &requests.FlowEventRequest{
		Type:             string(models.EventProviderAssigned),
		TriggeredBy:      "clinician-1",
		ProviderAssigned: &requests.ProviderAssignedPayload{ProviderID: "prov-ghost"},
	})

	require.Error(t, err)
	var custom *exceptions.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, constvars.StatusNotFound, custom.StatusCode)
}

func TestGetRiskHistoryUnknownFlow(t *testing.T) {
	fixture := newUsecaseFixture()

	_, err := fixture.usecase.GetRiskHistory(context.Background(), "flow-ghost")

	require.Error(t, err)
	var custom *exceptions.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, constvars.StatusNotFound, custom.StatusCode)
}

func TestGetStuckFlowsSurfacesInterruptedCommit(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()
	fixture.seedFlow(models.FlowStatusCategorySelected)

	// Trail write landed but the flow document update did not.
	_, err := fixture.flowRepo.AppendTransitionRecord(ctx, &models.TransitionRecord{
		ID:          "record-orphan",
		FlowID:      "flow-1",
		FromStatus:  models.FlowStatusCategorySelected,
		ToStatus:    models.FlowStatusIntakeInProgress,
		FlowVersion: 4,
	})
	require.NoError(t, err)

	stuck, err := fixture.usecase.GetStuckFlows(ctx)

	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "flow-1", stuck[0].ID)
}

func TestAbandonInactiveFlows(t *testing.T) {
	fixture := newUsecaseFixture()
	ctx := context.Background()

	stale := baseFlow(models.FlowStatusIntakeInProgress)
	stale.ID = "flow-stale"
	stale.LastActivityAt = testNow.Add(-100 * time.Hour)
	fixture.flowRepo.flows[stale.ID] = *stale

	fresh := baseFlow(models.FlowStatusIntakeInProgress)
	fresh.ID = "flow-fresh"
	fresh.LastActivityAt = testNow.Add(-time.Hour)
	fixture.flowRepo.flows[fresh.ID] = *fresh

	done := baseFlow(models.FlowStatusCompleted)
	done.ID = "flow-done"
	done.LastActivityAt = testNow.Add(-200 * time.Hour)
	fixture.flowRepo.flows[done.ID] = *done

	count, err := fixture.usecase.AbandonInactiveFlows(ctx, 72*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.FlowStatusAbandoned, fixture.flowRepo.flows["flow-stale"].Status)
	assert.Equal(t, models.FlowStatusIntakeInProgress, fixture.flowRepo.flows["flow-fresh"].Status)
	assert.Equal(t, models.FlowStatusCompleted, fixture.flowRepo.flows["flow-done"].Status)

	records, err := fixture.flowRepo.FindTransitionsByFlowID(ctx, "flow-stale")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.TransitionReasonInactivitySweep, records[0].Reason)
}

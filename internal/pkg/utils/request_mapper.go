package utils

import (
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/dto/responses"
)

// BuildFlowEventFromRequest maps the wire event union onto the domain union.
func BuildFlowEventFromRequest(request *requests.FlowEventRequest) *models.FlowEvent {
	event := &models.FlowEvent{
		Type:        models.FlowEventType(request.Type),
		TriggeredBy: request.TriggeredBy,
	}

	if request.IntakeSubmitted != nil {
		answers := make([]models.IntakeAnswer, 0, len(request.IntakeSubmitted.Answers))
		for _, answer := range request.IntakeSubmitted.Answers {
			answers = append(answers, models.IntakeAnswer{
				Key:    answer.Key,
				Text:   answer.Text,
				Number: answer.Number,
			})
		}
		event.IntakeSubmitted = &models.IntakeSubmittedPayload{
			FormSubmissionRef: request.IntakeSubmitted.FormSubmissionRef,
			Answers:           answers,
		}
	}
	if request.RiskReviewed != nil {
		event.RiskReviewed = &models.RiskReviewedPayload{
			ReviewNote:      request.RiskReviewed.ReviewNote,
			AdditionalRisks: request.RiskReviewed.AdditionalRisks,
			ClearUrgency:    request.RiskReviewed.ClearUrgency,
		}
	}
	if request.ProviderAssigned != nil {
		event.ProviderAssigned = &models.ProviderAssignedPayload{
			ProviderID: request.ProviderAssigned.ProviderID,
		}
	}
	if request.ConsultationScheduled != nil {
		event.ConsultationScheduled = &models.ConsultationScheduledPayload{
			ConsultationRef: request.ConsultationScheduled.ConsultationRef,
			ScheduledFor:    request.ConsultationScheduled.ScheduledFor,
		}
	}
	if request.ConsultationCompleted != nil {
		event.ConsultationCompleted = &models.ConsultationCompletedPayload{
			InvoiceRef: request.ConsultationCompleted.InvoiceRef,
		}
	}
	if request.OrderFulfilled != nil {
		event.OrderFulfilled = &models.OrderFulfilledPayload{
			OrderRef: request.OrderFulfilled.OrderRef,
		}
	}
	if request.FlowClosed != nil {
		event.FlowClosed = &models.FlowClosedPayload{
			SubscriptionRef: request.FlowClosed.SubscriptionRef,
		}
	}
	if request.Abandoned != nil {
		event.Abandoned = &models.AbandonedPayload{
			Reason: request.Abandoned.Reason,
		}
	}

	return event
}

func BuildFlowResponse(flow *models.Flow) responses.Flow {
	return responses.Flow{
		ID:                 flow.ID,
		PatientID:          flow.PatientID,
		CategoryID:         flow.CategoryID,
		Status:             flow.Status,
		Version:            flow.Version,
		FormSubmissionRef:  flow.FormSubmissionRef,
		OrderRef:           flow.OrderRef,
		ConsultationRef:    flow.ConsultationRef,
		InvoiceRef:         flow.InvoiceRef,
		SubscriptionRef:    flow.SubscriptionRef,
		AssignedProviderID: flow.AssignedProviderID,
		RiskAssessment:     flow.RiskAssessment,
		StartedAt:          flow.StartedAt,
		LastActivityAt:     flow.LastActivityAt,
		CompletedAt:        flow.CompletedAt,
	}
}

func BuildRiskAssessmentResponse(assessment *models.RiskAssessment) responses.RiskAssessment {
	return responses.RiskAssessment{
		ID:                     assessment.ID,
		Score:                  assessment.Score,
		Category:               assessment.Category,
		RiskFactors:            assessment.RiskFactors,
		UrgentFlags:            assessment.UrgentFlags,
		Recommendation:         assessment.Recommendation,
		SourceFlowID:           assessment.SourceFlowID,
		ComputedAt:             assessment.ComputedAt,
		SupersedesAssessmentID: assessment.SupersedesAssessmentID,
	}
}

func BuildTransitionRecordResponse(record *models.TransitionRecord) responses.TransitionRecord {
	return responses.TransitionRecord{
		ID:          record.ID,
		FlowID:      record.FlowID,
		FromStatus:  record.FromStatus,
		ToStatus:    record.ToStatus,
		FlowVersion: record.FlowVersion,
		Reason:      record.Reason,
		TriggeredBy: record.TriggeredBy,
		OccurredAt:  record.OccurredAt,
		Payload:     record.Payload,
	}
}

func BuildProviderResponse(provider *models.Provider) responses.Provider {
	riskExperience := make([]string, 0, len(provider.RiskExperience))
	for _, category := range provider.RiskExperience {
		riskExperience = append(riskExperience, string(category))
	}
	return responses.Provider{
		ID:                   provider.ID,
		Name:                 provider.Name,
		Specializations:      provider.Specializations,
		RiskExperience:       riskExperience,
		Rating:               provider.Rating,
		NextAvailableSlot:    provider.NextAvailableSlot,
		EstimatedWaitMinutes: provider.EstimatedWaitMinutes,
		Active:               provider.Active,
	}
}

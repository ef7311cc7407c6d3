package routers

import (
	"careflow-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachFlowRoutes(router chi.Router, flowController *controllers.FlowController) {
	router.Post("/", flowController.CreateFlow)
	router.Get("/stuck", flowController.GetStuckFlows)
	router.Get("/{flowID}", flowController.GetFlow)
	router.Post("/{flowID}/events", flowController.ApplyEvent)
	router.Get("/{flowID}/risk-history", flowController.GetRiskHistory)
	router.Get("/{flowID}/transitions", flowController.GetTransitions)
}

package routers

import (
	"careflow-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachProviderRoutes(router chi.Router, providerController *controllers.ProviderController) {
	router.Get("/", providerController.ListProviders)
	router.Put("/{providerID}", providerController.UpsertProvider)
}

package controllers

import (
	"net/http"

	"github.com/Nattanjunior/apoiadev-backend/api/responses"
	"github.com/Nattanjunior/apoiadev-backend/internal/accounts"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

// CreatorDashboardLink resolves the creator's Stripe Express dashboard URL.
// The url field is null when no link can be produced; the frontend treats
// that as "show onboarding" rather than an error.
func CreatorDashboardLink(svc *accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		creatorID, err := creatorIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.DashboardLink(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboardLinkResponse{URL: url})
	}
}

type dashboardLinkResponse struct {
	URL *string `json:"url"`
}

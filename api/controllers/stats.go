package controllers

import (
	"net/http"

	"github.com/Nattanjunior/apoiadev-backend/api/responses"
	"github.com/Nattanjunior/apoiadev-backend/internal/stats"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

// CreatorStats returns the dashboard summary for one creator.
func CreatorStats(svc *stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		creatorID, err := creatorIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ComputeStats(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, creatorStatsResponse{
			DonationCount:       result.DonationCount,
			TotalPaidCents:      result.TotalPaidCents,
			PendingBalanceCents: result.PendingBalanceCents,
			BalanceAvailable:    result.BalanceAvailable,
		})
	}
}

type creatorStatsResponse struct {
	DonationCount       int64 `json:"donation_count"`
	TotalPaidCents      int64 `json:"total_paid_cents"`
	PendingBalanceCents int64 `json:"pending_balance_cents"`
	BalanceAvailable    bool  `json:"balance_available"`
}

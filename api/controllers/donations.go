package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nattanjunior/apoiadev-backend/api/responses"
	"github.com/Nattanjunior/apoiadev-backend/api/validators"
	checkoutsvc "github.com/Nattanjunior/apoiadev-backend/internal/checkout"
	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/pkg/amount"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

// CreateDonation handles submission of a supporter's donation intent.
func CreateDonation(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createDonationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handle, err := svc.CreateDonation(r.Context(), checkoutsvc.CreateDonationInput{
			CreatorID:     payload.CreatorID,
			SupporterName: payload.SupporterName,
			Message:       payload.Message,
			AmountDisplay: payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createDonationResponse{
			SessionID: handle.SessionID,
		})
	}
}

// ListCreatorDonations returns the newest paid donations for a creator's dashboard.
func ListCreatorDonations(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		creatorID, err := creatorIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListRecent(r.Context(), creatorID, 20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDonationListResponse(rows))
	}
}

func creatorIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "creatorId")
	creatorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id must be a valid uuid")
	}
	return creatorID, nil
}

type createDonationRequest struct {
	CreatorID     uuid.UUID `json:"creator_id" validate:"required,uuid4"`
	SupporterName string    `json:"supporter_name" validate:"required,min=1,max=120"`
	Message       string    `json:"message" validate:"required,min=1,max=1000"`
	Amount        int64     `json:"amount" validate:"required"`
}

type createDonationResponse struct {
	SessionID string `json:"session_id"`
}

type donationListResponse struct {
	Donations []donationResponse `json:"donations"`
}

type donationResponse struct {
	ID            uuid.UUID  `json:"id"`
	SupporterName string     `json:"supporter_name"`
	Message       string     `json:"message"`
	Amount        int64      `json:"amount"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

func newDonationListResponse(rows []models.Donation) donationListResponse {
	out := donationListResponse{Donations: make([]donationResponse, 0, len(rows))}
	for _, row := range rows {
		display, err := amount.FromMinorUnits(row.AmountCents)
		if err != nil {
			display = row.AmountCents / 100
		}
		out.Donations = append(out.Donations, donationResponse{
			ID:            row.ID,
			SupporterName: row.SupporterName,
			Message:       row.Message,
			Amount:        display,
			AmountCents:   row.AmountCents,
			Currency:      string(row.Currency),
			ConfirmedAt:   row.ConfirmedAt,
		})
	}
	return out
}

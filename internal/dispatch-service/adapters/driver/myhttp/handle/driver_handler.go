package handle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"flytaxi/internal/dispatch-service/core/domain/dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/mylogger"
)

type DriverHandler struct {
	roster   ports.IRosterService
	dispatch ports.IDispatchService
	log      mylogger.Logger
}

func NewDriverHandler(roster ports.IRosterService, dispatch ports.IDispatchService, log mylogger.Logger) *DriverHandler {
	return &DriverHandler{
		roster:   roster,
		dispatch: dispatch,
		log:      log,
	}
}

func (dh *DriverHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.RegisterDriverRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := dh.roster.Register(r.Context(), req)
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (dh *DriverHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.LoginRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := dh.roster.Login(r.Context(), req)
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

// Approve is reachable through the admin-gated route only.
func (dh *DriverHandler) Approve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := r.PathValue("driver_id")

		req := dto.ApproveDriverRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := dh.roster.Approve(r.Context(), driverID, req.Classes); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{Status: "approved"})
	}
}

func (dh *DriverHandler) GoOnline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := dh.roster.GoOnline(r.Context(), callerID(r)); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{Status: "online"})
	}
}

func (dh *DriverHandler) GoOffline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := dh.roster.GoOffline(r.Context(), callerID(r)); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{Status: "offline"})
	}
}

func (dh *DriverHandler) UpdateLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.LocationUpdateRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}
		if req.Coords == nil {
			JsonError(w, http.StatusBadRequest, fmt.Errorf("coords required"))
			return
		}

		if err := dh.roster.UpdateLocation(r.Context(), callerID(r), *req.Coords); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{Status: "located"})
	}
}

func (dh *DriverHandler) UpdateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.SettingsRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := dh.roster.UpdateSettings(r.Context(), callerID(r), req); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{Status: "updated"})
	}
}

func (dh *DriverHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := dh.roster.Status(r.Context(), callerID(r))
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriverHandler) Overview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := dh.roster.Overview(r.Context())
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

// Accept reports the arbitration outcome in the response body so a driver
// racing another gets a definitive answer, not an error.
func (dh *DriverHandler) Accept() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := r.PathValue("order_id")

		outcome, err := dh.dispatch.Accept(r.Context(), orderID, callerID(r))
		if err != nil {
			JsonError(w, statusFor(err), err)
			return
		}

		res := dto.ActionResponseDto{OrderID: orderID, Status: string(outcome)}
		switch outcome {
		case model.Accepted:
			jsonResponse(w, http.StatusOK, res)
		case model.AlreadyTaken:
			jsonResponse(w, http.StatusConflict, res)
		case model.NotFound:
			jsonResponse(w, http.StatusNotFound, res)
		}
	}
}

func (dh *DriverHandler) Decline() http.HandlerFunc {
	return dh.orderAction("declined", dh.dispatch.Decline)
}

func (dh *DriverHandler) Arrived() http.HandlerFunc {
	return dh.orderAction("arrived", dh.dispatch.Arrived)
}

func (dh *DriverHandler) StartTrip() http.HandlerFunc {
	return dh.orderAction("in_progress", dh.dispatch.StartTrip)
}

func (dh *DriverHandler) Finish() http.HandlerFunc {
	return dh.orderAction("done", dh.dispatch.Finish)
}

func (dh *DriverHandler) Cancel() http.HandlerFunc {
	return dh.orderAction("canceled", dh.dispatch.Cancel)
}

func (dh *DriverHandler) orderAction(status string, do func(ctx context.Context, orderID, driverID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := r.PathValue("order_id")

		if err := do(r.Context(), orderID, callerID(r)); err != nil {
			JsonError(w, statusFor(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.ActionResponseDto{OrderID: orderID, Status: status})
	}
}

func callerID(r *http.Request) string {
	return r.Header.Get("X-DriverId")
}

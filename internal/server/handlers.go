package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/171k/ICT602-Laundroyale/internal/booking"
	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
	"github.com/171k/ICT602-Laundroyale/internal/payment"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
)

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machineType := r.URL.Query().Get("type")
	if machineType != "" && machineType != model.MachineTypeWasher && machineType != model.MachineTypeDryer {
		respondError(w, http.StatusBadRequest, "Invalid machine type")
		return
	}

	machines, err := s.machines.List(r.Context(), machineType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, machines)
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	machineID := mux.Vars(r)["id"]

	machine, err := s.machines.GetByID(r.Context(), machineID)
	if err != nil {
		if docstore.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Machine not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, machine)
}

type machineRequest struct {
	Name   string  `json:"machine_name"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

func (m machineRequest) validate() string {
	if m.Name == "" {
		return "Missing machine_name"
	}
	if m.Type != model.MachineTypeWasher && m.Type != model.MachineTypeDryer {
		return "Invalid machine type"
	}
	if m.Price <= 0 {
		return "Price must be positive"
	}
	return ""
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Status == "" {
		req.Status = model.MachineStatusAvailable
	}

	id, err := s.machines.Create(r.Context(), model.Machine{
		Name:   req.Name,
		Type:   req.Type,
		Price:  req.Price,
		Status: req.Status,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	s.notifyMachineChange(id)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Machine created successfully",
		"id":      id,
	})
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	machineID := mux.Vars(r)["id"]

	var req machineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	err := s.machines.Update(r.Context(), machineID, model.Machine{
		Name:   req.Name,
		Type:   req.Type,
		Price:  req.Price,
		Status: req.Status,
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Machine not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	s.notifyMachineChange(machineID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Machine updated successfully"})
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	machineID := mux.Vars(r)["id"]

	if err := s.machines.Delete(r.Context(), machineID); err != nil {
		if docstore.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Machine not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	s.notifyMachineChange(machineID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Machine deleted successfully"})
}

func (s *Server) notifyMachineChange(machineID string) {
	if s.onMachineChange != nil {
		s.onMachineChange(machineID)
	}
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string    `json:"user_id"`
		MachineID   string    `json:"machine_id"`
		Temperature string    `json:"temperature"`
		StartTime   time.Time `json:"start_time"`
		EndTime     time.Time `json:"end_time"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.MachineID == "" {
		respondError(w, http.StatusBadRequest, "Missing user_id or machine_id")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		respondError(w, http.StatusBadRequest, "Missing start_time or end_time")
		return
	}

	orderID, err := s.bookings.CreateBooking(r.Context(), req.UserID, req.MachineID, req.Temperature, req.StartTime, req.EndTime)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, map[string]string{
			"message": "Booking created successfully",
			"id":      orderID,
		})
	case errors.Is(err, booking.ErrLinkIncomplete):
		// The reservation stands; only the order→payment back-reference is
		// missing.
		respondJSON(w, http.StatusCreated, map[string]string{
			"message": "Booking created successfully",
			"id":      orderID,
			"warning": "payment link incomplete",
		})
	case errors.Is(err, booking.ErrSlotUnavailable):
		respondError(w, http.StatusConflict, "Time slot is not available")
	case errors.Is(err, booking.ErrInvalidDuration):
		respondError(w, http.StatusBadRequest, "Booking duration must be between 30 and 180 minutes")
	case errors.Is(err, booking.ErrMachineUnavailable):
		respondError(w, http.StatusBadRequest, "Machine is not available for booking")
	case docstore.IsNotFound(err):
		respondError(w, http.StatusNotFound, "Machine not found")
	default:
		log.Printf("Error creating booking for user %s: %v", req.UserID, err)
		respondError(w, http.StatusInternalServerError, "Failed to create booking")
	}
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	order, err := s.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		if docstore.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	orders, err := s.orders.ListUserOrders(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["id"]

	var req struct {
		PaymentMethod string `json:"payment_method"`
		VoucherID     string `json:"voucher_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "Missing payment_method")
		return
	}

	err := s.payments.Complete(r.Context(), paymentID, req.PaymentMethod, req.VoucherID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Payment completed successfully"})
	case errors.Is(err, payment.ErrAlreadySettled):
		respondError(w, http.StatusConflict, "Payment already settled")
	case docstore.IsNotFound(err):
		respondError(w, http.StatusNotFound, "Payment not found")
	default:
		log.Printf("Error completing payment %s: %v", paymentID, err)
		respondError(w, http.StatusInternalServerError, "Failed to complete payment")
	}
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	count := s.rewards.AvailableTokenCount(r.Context(), userID)
	respondJSON(w, http.StatusOK, map[string]int{"tokens": count})
}

func (s *Server) handleUseToken(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	err := s.rewards.UseToken(r.Context(), userID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Token used successfully"})
	case errors.Is(err, repository.ErrNoTokens):
		respondError(w, http.StatusConflict, "No unused tokens available")
	default:
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}

func (s *Server) handleListVouchers(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	vouchers, err := s.rewards.Vouchers(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, vouchers)
}

func (s *Server) handleIssueVoucher(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = model.VoucherTypeRM5Off
	}

	id, err := s.rewards.IssueVoucher(r.Context(), userID, req.Type)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Voucher issued successfully",
		"id":      id,
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing username or password")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleCustomer
	}

	id, err := s.userRepo.Create(r.Context(), model.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}, req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"id":      id,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	if err := s.userRepo.Delete(r.Context(), userID); err != nil {
		if docstore.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Build(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

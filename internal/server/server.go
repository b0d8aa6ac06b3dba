//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=server_mocks
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/171k/ICT602-Laundroyale/internal/analytics"
	"github.com/171k/ICT602-Laundroyale/internal/booking"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID, machineID, temperature string, start, end time.Time) (string, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (booking.OrderDetail, error)
	ListUserOrders(ctx context.Context, userID string) ([]model.Order, error)
}

type PaymentSettler interface {
	Complete(ctx context.Context, paymentID, method, voucherID string) error
}

type RewardLedger interface {
	AvailableTokenCount(ctx context.Context, userID string) int
	UseToken(ctx context.Context, userID string) error
	IssueVoucher(ctx context.Context, userID, voucherType string) (string, error)
	Vouchers(ctx context.Context, userID string) ([]model.Voucher, error)
}

type MachineStore interface {
	List(ctx context.Context, machineType string) ([]model.Machine, error)
	GetByID(ctx context.Context, id string) (model.Machine, error)
	Create(ctx context.Context, machine model.Machine) (string, error)
	Update(ctx context.Context, id string, machine model.Machine) error
	Delete(ctx context.Context, id string) error
}

type AnalyticsService interface {
	Build(ctx context.Context) (analytics.Report, error)
}

type UserRepo interface {
	ValidateUser(ctx context.Context, username, password string) (bool, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	Create(ctx context.Context, user model.User, password string) (string, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	bookings  BookingService
	orders    OrderReader
	payments  PaymentSettler
	rewards   RewardLedger
	machines  MachineStore
	analytics AnalyticsService
	userRepo  UserRepo

	server       *http.Server
	AuditManager *AuditManager

	// onMachineChange invalidates the machine cache after catalog mutations.
	onMachineChange func(machineID string)
}

func New(bookings BookingService, orders OrderReader, payments PaymentSettler, rewards RewardLedger, machines MachineStore, analyticsService AnalyticsService, userRepo UserRepo) *Server {
	return &Server{
		bookings:     bookings,
		orders:       orders,
		payments:     payments,
		rewards:      rewards,
		machines:     machines,
		analytics:    analyticsService,
		userRepo:     userRepo,
		AuditManager: NewAuditManager(2, 5, 500*time.Millisecond),
	}
}

// WithMachineChangeHook registers a callback invoked with the machine id
// after every catalog mutation.
func (s *Server) WithMachineChangeHook(hook func(machineID string)) *Server {
	s.onMachineChange = hook
	return s
}

func (s *Server) Run(ctx context.Context, port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.AuditManager.Start(ctx)

	go s.handleShutdown()

	log.Printf("Server starting on port %s", port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleShutdown() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Printf("ERROR: server shutdown failed: %v", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	log.Println("HTTP server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	log.Println("Server shutdown completed successfully")

	return nil
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	// Metrics stay outside auth and audit.
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/").Subrouter()
	api.Use(s.auditLogMiddleware, s.basicAuthMiddleware)

	api.HandleFunc("/machines", s.handleListMachines).Methods(http.MethodGet)
	api.HandleFunc("/machines", s.adminOnly(s.handleCreateMachine)).Methods(http.MethodPost)
	api.HandleFunc("/machines/{id}", s.handleGetMachine).Methods(http.MethodGet)
	api.HandleFunc("/machines/{id}", s.adminOnly(s.handleUpdateMachine)).Methods(http.MethodPut)
	api.HandleFunc("/machines/{id}", s.adminOnly(s.handleDeleteMachine)).Methods(http.MethodDelete)

	api.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/orders", s.handleListUserOrders).Methods(http.MethodGet)

	api.HandleFunc("/payments/{id}/complete", s.handleCompletePayment).Methods(http.MethodPost)

	api.HandleFunc("/users/{userID}/tokens/count", s.handleTokenBalance).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/tokens/use", s.handleUseToken).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/vouchers", s.handleListVouchers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/vouchers", s.adminOnly(s.handleIssueVoucher)).Methods(http.MethodPost)

	api.HandleFunc("/users", s.adminOnly(s.handleCreateUser)).Methods(http.MethodPost)
	api.HandleFunc("/users", s.adminOnly(s.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.adminOnly(s.handleDeleteUser)).Methods(http.MethodDelete)
	api.HandleFunc("/analytics", s.adminOnly(s.handleAnalytics)).Methods(http.MethodGet)

	return router
}

type contextKey string

const usernameKey contextKey = "username"

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		valid, err := s.userRepo.ValidateUser(r.Context(), username, password)
		if err != nil || !valid {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, _ := r.Context().Value(usernameKey).(string)
		user, err := s.userRepo.GetByUsername(r.Context(), username)
		if err != nil || !user.IsAdmin() {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

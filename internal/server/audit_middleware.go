package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"
)

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := AuditLogEntry{
			Timestamp: time.Now(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   getHandlerName(r.URL.Path, r.Method),
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.UserID = username
		}

		entry.OrderID = pathSegmentAfter(r.URL.Path, "orders")
		entry.MachineID = pathSegmentAfter(r.URL.Path, "machines")
		entry.PaymentID = pathSegmentAfter(r.URL.Path, "payments")

		var requestBody []byte
		if r.Body != nil && !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = string(requestBody)
		}

		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r)

		entry.StatusCode = wrw.GetStatusCode()
		entry.Response = string(wrw.GetBody())

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func pathSegmentAfter(path, name string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == name && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func getHandlerName(path string, method string) string {
	switch {
	case strings.HasPrefix(path, "/machines"):
		switch method {
		case http.MethodPost:
			return "handleCreateMachine"
		case http.MethodPut:
			return "handleUpdateMachine"
		case http.MethodDelete:
			return "handleDeleteMachine"
		default:
			if pathSegmentAfter(path, "machines") != "" {
				return "handleGetMachine"
			}
			return "handleListMachines"
		}
	case strings.HasPrefix(path, "/bookings"):
		return "handleCreateBooking"
	case strings.HasPrefix(path, "/orders"):
		return "handleGetOrder"
	case strings.HasPrefix(path, "/payments"):
		return "handleCompletePayment"
	case strings.HasPrefix(path, "/users") && strings.Contains(path, "/orders"):
		return "handleListUserOrders"
	case strings.HasPrefix(path, "/users") && strings.Contains(path, "/tokens/use"):
		return "handleUseToken"
	case strings.HasPrefix(path, "/users") && strings.Contains(path, "/tokens"):
		return "handleTokenBalance"
	case strings.HasPrefix(path, "/users") && strings.Contains(path, "/vouchers"):
		if method == http.MethodPost {
			return "handleIssueVoucher"
		}
		return "handleListVouchers"
	case strings.HasPrefix(path, "/users"):
		switch method {
		case http.MethodDelete:
			return "handleDeleteUser"
		case http.MethodGet:
			return "handleListUsers"
		default:
			return "handleCreateUser"
		}
	case strings.HasPrefix(path, "/analytics"):
		return "handleAnalytics"
	}
	return "unknown"
}

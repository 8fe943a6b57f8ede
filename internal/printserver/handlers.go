package printserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

// requiredFields проверяются по порядку; первый отсутствующий попадает в ответ.
var requiredFields = []string{"order_id", "customer_name", "items", "total_amount"}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, statusResponse{Status: "error", Message: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "No JSON data provided"})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		s.metrics.RecordJob("order", "rejected")
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "No JSON data provided"})
		return
	}
	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			s.metrics.RecordJob("order", "rejected")
			writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Missing required field: " + field})
			return
		}
	}

	var rec receipt.Receipt
	if err := json.Unmarshal(body, &rec); err != nil {
		s.metrics.RecordJob("order", "rejected")
		s.logger.WithError(err).Warn("malformed print request")
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid field value: " + err.Error()})
		return
	}
	rec = rec.WithShop(s.cfg.Shop, s.now().In(s.cfg.Location))

	logger := s.logger.WithField("order_id", rec.OrderID)
	start := time.Now()
	if err := s.printer.Send(r.Context(), s.cfg.Layout.Format(rec)); err != nil {
		s.metrics.RecordJob("order", "failed")
		logger.WithError(err).Error("failed to print receipt")
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: "Ошибка печати"})
		return
	}

	s.metrics.RecordJob("order", "printed")
	logger.WithField("duration", time.Since(start)).Info("receipt printed")
	orderID := rec.OrderID
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Чек отправлен на печать",
		OrderID: &orderID,
	})
}

func (s *Server) handleTestPrint(w http.ResponseWriter, r *http.Request) {
	rec := receipt.Sample(s.cfg.Shop, s.now().In(s.cfg.Location))

	if err := s.printer.Send(r.Context(), s.cfg.Layout.Format(rec)); err != nil {
		s.metrics.RecordJob("test", "failed")
		s.logger.WithError(err).Error("test print failed")
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: "Ошибка тестовой печати"})
		return
	}

	s.metrics.RecordJob("test", "printed")
	s.logger.Info("test receipt printed")
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Тестовый чек распечатан"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	if err := s.printer.Probe(r.Context()); err != nil {
		s.metrics.RecordProbe(false)
		s.logger.WithError(err).WithFields(log.Fields{"check": "printer"}).Warn("printer is unreachable")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "error",
			Printer:   "disconnected",
			Error:     err.Error(),
			Timestamp: timestamp,
		})
		return
	}

	s.metrics.RecordProbe(true)
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Printer: "connected", Timestamp: timestamp})
}

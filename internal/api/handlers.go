package api

import (
	"net/http"

	"github.com/micro-nova/pwsink-go/internal/models"
	"github.com/micro-nova/pwsink-go/internal/reconcile"
)

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.eng.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) getSinks(w http.ResponseWriter, r *http.Request) {
	sinks, err := h.eng.Sinks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sinks)
}

func (h *Handlers) getDefaultSink(w http.ResponseWriter, r *http.Request) {
	sink, err := h.eng.Default(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sink == nil {
		writeError(w, &models.AppError{Code: models.CodeSinkNotFound, Message: "no default sink configured",
			Status: http.StatusNotFound, Exit: models.ExitSinkNotFound})
		return
	}
	writeJSON(w, http.StatusOK, sink)
}

func (h *Handlers) getDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.eng.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// setSink runs the reconciliation for {label}. Query: retry, force.
func (h *Handlers) setSink(w http.ResponseWriter, r *http.Request) {
	label, err := h.labelParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cfg := h.settings()
	retry, err := intQuery(r, "retry", cfg.Retry)
	if err != nil {
		writeError(w, err)
		return
	}
	force, err := boolQuery(r, "force")
	if err != nil {
		writeError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	sink, err := h.eng.SetSink(r.Context(), label, reconcile.Options{
		Retry:     retry,
		Timeout:   cfg.Timeout,
		Reconnect: force,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context())
	writeJSON(w, http.StatusOK, sink)
}

// connect connects {label}; 204 means it was already connected.
func (h *Handlers) connect(w http.ResponseWriter, r *http.Request) {
	label, err := h.labelParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	force, err := boolQuery(r, "force")
	if err != nil {
		writeError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	dev, err := h.eng.Connect(r.Context(), label, force)
	if err != nil {
		writeError(w, err)
		return
	}
	if dev == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.publish(r.Context())
	writeJSON(w, http.StatusOK, dev)
}

func (h *Handlers) disconnect(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	devices, err := h.eng.Disconnect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context())
	writeJSON(w, http.StatusOK, devices)
}

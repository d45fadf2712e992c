// Package api implements the HTTP control surface served by `pwsink serve`.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/micro-nova/pwsink-go/internal/config"
	"github.com/micro-nova/pwsink-go/internal/events"
	"github.com/micro-nova/pwsink-go/internal/identity"
	"github.com/micro-nova/pwsink-go/internal/models"
	"github.com/micro-nova/pwsink-go/internal/reconcile"
)

// Engine is what the handlers need from the reconciliation engine.
type Engine interface {
	Status(ctx context.Context) (models.Status, error)
	Sinks(ctx context.Context) ([]models.Sink, error)
	Devices(ctx context.Context) ([]models.BluetoothDevice, error)
	Default(ctx context.Context) (*models.Sink, error)
	SetSink(ctx context.Context, label string, opts reconcile.Options) (models.Sink, error)
	Connect(ctx context.Context, label string, reconnect bool) (*models.BluetoothDevice, error)
	Disconnect(ctx context.Context) ([]models.BluetoothDevice, error)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	eng      Engine
	events   *events.Bus
	settings func() config.Config
	info     identity.Info
	log      *slog.Logger

	// mu serializes requests that change device or sink state.
	mu sync.Mutex
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON AppError. Errors that are not AppErrors
// become INTERNAL.
func writeError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.Internal(err)
	}
	writeJSON(w, appErr.Status, appErr)
}

// labelParam reads and unescapes the {label} path parameter and resolves
// configured aliases.
func (h *Handlers) labelParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "label")
	label, err := url.PathUnescape(raw)
	if err != nil || label == "" {
		return "", models.BadRequest("invalid label parameter")
	}
	return h.settings().ResolveAlias(label), nil
}

// boolQuery reads an optional boolean query parameter.
func boolQuery(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, models.BadRequest("invalid " + name + " parameter")
	}
	return b, nil
}

// intQuery reads an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.BadRequest("invalid " + name + " parameter")
	}
	return n, nil
}

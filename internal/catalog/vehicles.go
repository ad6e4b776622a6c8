package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

type vehicleRow struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
}

// VehicleLoader maintains the vehicle list for the currently selected
// client. The list is replaced wholesale on every selection change and the
// loader enforces latest-request-wins: each Load bumps a generation counter
// at issue time, and a response is applied only while its generation is
// still current, so a slow fetch for a previously selected client can never
// overwrite a newer selection's list.
type VehicleLoader struct {
	api *client.Client
	log *zap.Logger

	mu       sync.Mutex
	gen      uint64
	clientID int
	vehicles []Vehicle
}

// NewVehicleLoader creates a vehicle loader.
func NewVehicleLoader(api *client.Client, log *zap.Logger) *VehicleLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &VehicleLoader{api: api, log: log}
}

// Load replaces the vehicle list with the cars owned by clientID. A zero
// clientID clears the list synchronously without issuing a request. A fetch
// failure clears the list for that selection (same degrade policy as the
// other reference lists). Stale responses are discarded silently.
func (l *VehicleLoader) Load(ctx context.Context, clientID int) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.clientID = clientID
	if clientID == 0 {
		l.vehicles = nil
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	var rows []vehicleRow
	err := l.api.GetJSON(ctx, "/form-data/cars/", map[string]string{
		"owner_id": strconv.Itoa(clientID),
	}, &rows)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != gen {
		// A newer selection was issued while this request was in flight.
		l.log.Debug("discarding stale vehicle response", zap.Int("client_id", clientID))
		return nil
	}

	if err != nil {
		l.vehicles = nil
		l.log.Warn("loading vehicles failed", zap.Int("client_id", clientID), zap.Error(err))
		return fmt.Errorf("loading vehicles for client %d: %w", clientID, err)
	}

	vehicles := make([]Vehicle, 0, len(rows))
	for _, r := range rows {
		vehicles = append(vehicles, Vehicle{ID: r.ID, DisplayName: r.DisplayName})
	}
	l.vehicles = vehicles
	return nil
}

// Current returns the client id the list belongs to and a snapshot of it.
func (l *VehicleLoader) Current() (int, []Vehicle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := make([]Vehicle, len(l.vehicles))
	copy(snapshot, l.vehicles)
	return l.clientID, snapshot
}

// Contains reports whether the current list includes vehicleID.
func (l *VehicleLoader) Contains(vehicleID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.vehicles {
		if v.ID == vehicleID {
			return true
		}
	}
	return false
}

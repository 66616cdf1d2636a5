package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry holds the fixed set of team slots and their join tokens.
// Tokens are issued once at construction and are immutable for the
// process lifetime; the slot set never grows or shrinks. Join state
// (display name, connected flag) is mutable and guarded by an RWMutex;
// scores and answers belong to the Session, not here.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	slots  map[string]*slotState
	tokens map[string]string // token -> slot ID
	logger zerolog.Logger
}

type slotState struct {
	token       string
	displayName string
	joined      bool
	connected   bool
}

// SlotInfo is a read-only view of a slot's identity and join status.
type SlotInfo struct {
	ID          string
	DisplayName string
	Joined      bool
	Connected   bool
}

// NewRegistry creates slotCount team slots named team1..teamN and issues
// one unguessable token per slot.
func NewRegistry(slotCount int, logger zerolog.Logger) *Registry {
	r := &Registry{
		order:  make([]string, 0, slotCount),
		slots:  make(map[string]*slotState, slotCount),
		tokens: make(map[string]string, slotCount),
		logger: logger.With().Str("component", "team_registry").Logger(),
	}
	for i := 1; i <= slotCount; i++ {
		id := fmt.Sprintf("team%d", i)
		token := uuid.NewString()
		r.order = append(r.order, id)
		r.slots[id] = &slotState{token: token}
		r.tokens[token] = id
	}
	return r
}

// Resolve maps a join token to its slot ID.
func (r *Registry) Resolve(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokens[token]
	return id, ok
}

// MarkJoined records a join for the slot. Idempotent; a repeat join
// overwrites the display name and re-flags the slot as connected.
func (r *Registry) MarkJoined(slotID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok {
		return
	}
	slot.displayName = displayName
	slot.joined = true
	slot.connected = true
	r.logger.Info().Str("slot_id", slotID).Str("display_name", displayName).Msg("team joined")
}

// MarkDisconnected flips the slot's connected flag. Disconnection is not
// an error and does not forget the join; the same token re-binds the slot.
func (r *Registry) MarkDisconnected(slotID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.slots[slotID]; ok && slot.connected {
		slot.connected = false
		r.logger.Info().Str("slot_id", slotID).Msg("team disconnected")
	}
}

// Joined reports whether the slot has joined at least once this session.
func (r *Registry) Joined(slotID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[slotID]
	return ok && slot.joined
}

// ResetJoinState clears display names and join flags for every slot.
// Tokens survive; a reset game reuses the same join URLs.
func (r *Registry) ResetJoinState() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.slots {
		slot.displayName = ""
		slot.joined = false
		slot.connected = false
	}
}

// SlotIDs returns slot IDs in stable order.
func (r *Registry) SlotIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Slots returns a point-in-time view of every slot in stable order.
func (r *Registry) Slots() []SlotInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]SlotInfo, 0, len(r.order))
	for _, id := range r.order {
		slot := r.slots[id]
		infos = append(infos, SlotInfo{
			ID:          id,
			DisplayName: slot.displayName,
			Joined:      slot.joined,
			Connected:   slot.connected,
		})
	}
	return infos
}

// TeamURLs maps each slot to a join URL with its token embedded, for
// out-of-band distribution by the operator.
func (r *Registry) TeamURLs(frontendBase string) map[string]string {
	urls := make(map[string]string, len(r.order))
	for _, id := range r.order {
		urls[id] = fmt.Sprintf("%s/team/%s", frontendBase, r.slots[id].token)
	}
	return urls
}

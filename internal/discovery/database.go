package discovery

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Database records what has been discovered on the network.
// Endpoints and participants are only ever added; a node that leaves the
// network stays listed.
type Database struct {
	mu           sync.RWMutex
	participants map[uuid.UUID]Participant
	endpoints    map[uuid.UUID]Endpoint
	types        map[string]TypeInfo

	listenersMu sync.RWMutex
	listeners   []EndpointListener

	logger *slog.Logger
}

// NewDatabase creates an empty discovery database.
func NewDatabase(logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}
	return &Database{
		participants: make(map[uuid.UUID]Participant),
		endpoints:    make(map[uuid.UUID]Endpoint),
		types:        make(map[string]TypeInfo),
		logger:       logger.With("component", "discovery"),
	}
}

// Subscribe registers a listener for endpoints discovered from now on.
func (db *Database) Subscribe(l EndpointListener) {
	if l == nil {
		return
	}
	db.listenersMu.Lock()
	defer db.listenersMu.Unlock()
	db.listeners = append(db.listeners, l)
}

// AddParticipant records a participant. It returns false if it was already known.
func (db *Database) AddParticipant(p Participant) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.participants[p.GUID]; exists {
		return false
	}
	db.participants[p.GUID] = p
	db.logger.Debug("participant discovered", "guid", p.GUID, "name", p.Name)
	return true
}

// AddEndpoint records an endpoint and notifies every listener when it is new.
// Listeners run on the calling goroutine, outside the database lock.
func (db *Database) AddEndpoint(e Endpoint) bool {
	db.mu.Lock()
	_, exists := db.endpoints[e.GUID]
	if !exists {
		db.endpoints[e.GUID] = e
	}
	db.mu.Unlock()

	if exists {
		return false
	}
	db.logger.Debug("endpoint discovered",
		"guid", e.GUID,
		"kind", e.Kind.String(),
		"topic", e.Topic.Name,
		"type", e.Topic.TypeName,
	)

	db.listenersMu.RLock()
	listeners := make([]EndpointListener, len(db.listeners))
	copy(listeners, db.listeners)
	db.listenersMu.RUnlock()

	for _, l := range listeners {
		l.OnEndpointDiscovered(e)
	}
	return true
}

// AddType records a discovered type definition.
func (db *Database) AddType(info TypeInfo) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.types[info.Name]; exists {
		return false
	}
	db.types[info.Name] = info
	db.logger.Debug("type discovered", "type", info.Name)
	return true
}

// HasType reports whether the definition of typeName has been received.
func (db *Database) HasType(typeName string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.types[typeName]
	return exists
}

// Participant looks up a participant by GUID.
func (db *Database) Participant(guid uuid.UUID) (Participant, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, exists := db.participants[guid]
	return p, exists
}

// Participants returns all known participants ordered by name.
func (db *Database) Participants() []Participant {
	db.mu.RLock()
	result := make([]Participant, 0, len(db.participants))
	for _, p := range db.participants {
		result = append(result, p)
	}
	db.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].GUID.String() < result[j].GUID.String()
	})
	return result
}

// Endpoints returns all known endpoints of the given kind ordered by topic.
func (db *Database) Endpoints(kind Kind) []Endpoint {
	db.mu.RLock()
	result := make([]Endpoint, 0, len(db.endpoints))
	for _, e := range db.endpoints {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	db.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Topic.Name != result[j].Topic.Name {
			return result[i].Topic.Name < result[j].Topic.Name
		}
		return result[i].GUID.String() < result[j].GUID.String()
	})
	return result
}

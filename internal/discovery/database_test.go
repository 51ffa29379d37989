package discovery

import (
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nfrund/netspy/internal/topics"
)

func TestDatabase_AddEndpointNotifiesOnce(t *testing.T) {
	db := NewDatabase(nil)
	var calls atomic.Int32
	db.Subscribe(EndpointListenerFunc(func(Endpoint) { calls.Add(1) }))

	e := Endpoint{
		GUID:  uuid.New(),
		Kind:  KindReader,
		Topic: topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{}),
	}

	assert.True(t, db.AddEndpoint(e))
	assert.False(t, db.AddEndpoint(e), "Rediscovery of the same endpoint is not new")
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, db.Endpoints(KindReader), 1)
	assert.Empty(t, db.Endpoints(KindWriter))
}

func TestDatabase_SubscribeIgnoresNil(t *testing.T) {
	db := NewDatabase(nil)
	db.Subscribe(nil)

	assert.NotPanics(t, func() {
		db.AddEndpoint(Endpoint{GUID: uuid.New(), Topic: topics.Descriptor{Name: "x"}})
	})
}

func TestDatabase_ParticipantsAndTypes(t *testing.T) {
	db := NewDatabase(nil)
	b := Participant{GUID: uuid.New(), Name: "beta"}
	a := Participant{GUID: uuid.New(), Name: "alpha"}

	assert.True(t, db.AddParticipant(b))
	assert.True(t, db.AddParticipant(a))
	assert.False(t, db.AddParticipant(a))

	all := db.Participants()
	assert.Equal(t, []Participant{a, b}, all)

	got, ok := db.Participant(b.GUID)
	assert.True(t, ok)
	assert.Equal(t, "beta", got.Name)

	assert.False(t, db.HasType("std_msgs::String"))
	assert.True(t, db.AddType(TypeInfo{Name: "std_msgs::String"}))
	assert.False(t, db.AddType(TypeInfo{Name: "std_msgs::String"}))
	assert.True(t, db.HasType("std_msgs::String"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "writer", KindWriter.String())
	assert.Equal(t, "reader", KindReader.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/netspy/internal/pipeline"
	"github.com/nfrund/netspy/internal/topics"
)

func TestAllowedTopicList_IsAllowed(t *testing.T) {
	chatter := topics.NewDescriptor("rt/chatter", "std_msgs::String", topics.QoS{})
	square := topics.NewDescriptor("Square", "ShapeType", topics.QoS{})

	tests := []struct {
		name  string
		allow []pipeline.Filter
		block []pipeline.Filter
		topic topics.Descriptor
		want  bool
	}{
		{name: "empty lists admit everything", topic: chatter, want: true},
		{name: "exact allow", allow: []pipeline.Filter{{Name: "rt/chatter"}}, topic: chatter, want: true},
		{name: "not in allowlist", allow: []pipeline.Filter{{Name: "rt/chatter"}}, topic: square, want: false},
		{name: "star wildcard", allow: []pipeline.Filter{{Name: "rt/*"}}, topic: chatter, want: true},
		{name: "question mark wildcard", allow: []pipeline.Filter{{Name: "Squar?"}}, topic: square, want: true},
		{name: "wildcard is anchored", allow: []pipeline.Filter{{Name: "chat*"}}, topic: chatter, want: false},
		{name: "regexp characters are literal", allow: []pipeline.Filter{{Name: "rt.chatter"}}, topic: chatter, want: false},
		{name: "type must match", allow: []pipeline.Filter{{Name: "*", Type: "ShapeType"}}, topic: chatter, want: false},
		{name: "type wildcard", allow: []pipeline.Filter{{Name: "*", Type: "std_msgs::*"}}, topic: chatter, want: true},
		{name: "blocked", block: []pipeline.Filter{{Name: "Square"}}, topic: square, want: false},
		{
			name:  "blocklist wins over allowlist",
			allow: []pipeline.Filter{{Name: "*"}},
			block: []pipeline.Filter{{Name: "rt/*"}},
			topic: chatter,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := pipeline.NewAllowedTopicList(tt.allow, tt.block)
			assert.Equal(t, tt.want, list.IsAllowed(tt.topic))
		})
	}
}

func TestAllowedTopicList_NilAdmitsEverything(t *testing.T) {
	var list *pipeline.AllowedTopicList
	assert.True(t, list.IsAllowed(topics.NewDescriptor("any", "T", topics.QoS{})))
}

func TestAllowedTopicList_Equal(t *testing.T) {
	a := pipeline.NewAllowedTopicList([]pipeline.Filter{{Name: "a"}}, []pipeline.Filter{{Name: "b", Type: "T"}})
	same := pipeline.NewAllowedTopicList([]pipeline.Filter{{Name: "a"}}, []pipeline.Filter{{Name: "b", Type: "T"}})
	other := pipeline.NewAllowedTopicList([]pipeline.Filter{{Name: "a"}}, nil)

	assert.True(t, a.Equal(same))
	assert.False(t, a.Equal(other))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, []pipeline.Filter{{Name: "b", Type: "T"}}, a.Blocklist())
}

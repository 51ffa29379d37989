package topics_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/netspy/internal/topics"
)

func TestRegistry(t *testing.T) {
	t.Run("Add and Find", func(t *testing.T) {
		registry := topics.NewRegistry()
		chatter := topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{Reliable: true})

		registry.Add(chatter)

		found, exists := registry.Find("Chatter")
		require.True(t, exists, "Topic should exist after Add")
		assert.True(t, chatter.Equal(found), "Retrieved descriptor should match the added one")
	})

	t.Run("Find Non-Existent Topic", func(t *testing.T) {
		registry := topics.NewRegistry()

		found, exists := registry.Find("Ghost")
		assert.False(t, exists, "Non-existent topic should not be found")
		assert.Equal(t, topics.Descriptor{}, found)
	})

	t.Run("Add Twice Keeps One Entry", func(t *testing.T) {
		registry := topics.NewRegistry()
		chatter := topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{})

		registry.Add(chatter)
		registry.Add(chatter)

		assert.Equal(t, 1, registry.Count())
		found, _ := registry.Find("Chatter")
		assert.True(t, chatter.Equal(found))
	})

	t.Run("First Descriptor Wins On Type Mismatch", func(t *testing.T) {
		registry := topics.NewRegistry()
		first := topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{})
		second := topics.NewDescriptor("Chatter", "std_msgs::Int32", topics.QoS{Reliable: true})

		registry.Add(first)
		registry.Add(second)

		found, exists := registry.Find("Chatter")
		require.True(t, exists)
		assert.Equal(t, "std_msgs::String", found.TypeName)
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("List Is Sorted By Name", func(t *testing.T) {
		registry := topics.NewRegistry()
		registry.Add(topics.NewDescriptor("zeta", "T", topics.QoS{}))
		registry.Add(topics.NewDescriptor("alpha", "T", topics.QoS{}))
		registry.Add(topics.NewDescriptor("mid", "T", topics.QoS{}))

		all := registry.List()
		require.Len(t, all, 3)
		assert.Equal(t, "alpha", all[0].Name)
		assert.Equal(t, "mid", all[1].Name)
		assert.Equal(t, "zeta", all[2].Name)
	})

	t.Run("Stored Descriptor Is Isolated From Caller", func(t *testing.T) {
		registry := topics.NewRegistry()
		partitions := []string{"a"}
		d := topics.Descriptor{Name: "p", TypeName: "T", QoS: topics.QoS{Partitions: partitions}}

		registry.Add(d)
		partitions[0] = "mutated"

		found, _ := registry.Find("p")
		assert.Equal(t, []string{"a"}, found.QoS.Partitions)

		found.QoS.Partitions[0] = "mutated again"
		again, _ := registry.Find("p")
		assert.Equal(t, []string{"a"}, again.QoS.Partitions)
	})
}

func TestRegistryConflictHandler(t *testing.T) {
	var (
		mu        sync.Mutex
		conflicts [][2]topics.Descriptor
	)
	registry := topics.NewRegistry(topics.WithConflictHandler(func(existing, rediscovered topics.Descriptor) {
		mu.Lock()
		defer mu.Unlock()
		conflicts = append(conflicts, [2]topics.Descriptor{existing, rediscovered})
	}))

	registry.Add(topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{}))
	registry.Add(topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{Reliable: true}))
	registry.Add(topics.NewDescriptor("Chatter", "std_msgs::Int32", topics.QoS{}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, conflicts, 1, "Only a type mismatch should be reported")
	assert.Equal(t, "std_msgs::String", conflicts[0][0].TypeName)
	assert.Equal(t, "std_msgs::Int32", conflicts[0][1].TypeName)

	found, _ := registry.Find("Chatter")
	assert.Equal(t, "std_msgs::String", found.TypeName, "Conflicts must not replace the stored descriptor")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	const writers = 16
	const perWriter = 100

	registry := topics.NewRegistry()
	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				name := fmt.Sprintf("topic-%d-%d", w, i)
				registry.Add(topics.NewDescriptor(name, "type-"+name, topics.QoS{Partitions: []string{name}}))
			}
		}(w)
	}

	// Readers run alongside the writers and must only ever see whole descriptors.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				name := fmt.Sprintf("topic-%d-%d", r, i)
				if d, ok := registry.Find(name); ok {
					assert.Equal(t, name, d.Name)
					assert.Equal(t, "type-"+name, d.TypeName)
					assert.Equal(t, []string{name}, d.QoS.Partitions)
				}
			}
		}(r)
	}

	wg.Wait()
	assert.Equal(t, writers*perWriter, registry.Count(), "No insertion should be lost")
}

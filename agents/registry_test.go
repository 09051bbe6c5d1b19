package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// stubAgent is a minimal Agent for registry tests.
type stubAgent struct {
	id     string
	name   string
	status Status
	caps   Capabilities
}

func (a *stubAgent) ID() string                 { return a.id }
func (a *stubAgent) Name() string               { return a.name }
func (a *stubAgent) Status() Status             { return a.status }
func (a *stubAgent) Capabilities() Capabilities { return a.caps }
func (a *stubAgent) CanHandle(*message.Message) bool {
	return a.status == StatusAvailable
}
func (a *stubAgent) Handle(ctx context.Context, msg *message.Message) (*message.Result, error) {
	return message.Ok("handled by " + a.id), nil
}

func newStub(id string, skills ...string) *stubAgent {
	return &stubAgent{
		id:     id,
		name:   id,
		status: StatusAvailable,
		caps:   Capabilities{Skills: skills},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)

	_, ok := r.Get("missing")
	assert.False(t, ok)

	agent := newStub("support")
	r.Register(agent)

	got, ok := r.Get("support")
	require.True(t, ok)
	assert.Same(t, agent, got)
	assert.True(t, r.Has("support"))
	assert.Equal(t, 1, r.Count())
}

func TestRegisterReplacesInPlace(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(newStub("a"))
	r.Register(newStub("b"))

	replacement := newStub("a")
	r.Register(replacement)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID(), "replacement keeps registration position")
	assert.Same(t, replacement, all[0])
}

func TestUnregister(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(newStub("a"))

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"))
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.All())
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(newStub("c"))
	r.Register(newStub("a"))
	r.Register(newStub("b"))

	var ids []string
	for _, agent := range r.All() {
		ids = append(ids, agent.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestByCapability(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(newStub("writer", "Writing", "editing"))
	r.Register(newStub("coder", "coding"))

	writers := r.ByCapability("writing")
	require.Len(t, writers, 1)
	assert.Equal(t, "writer", writers[0].ID())

	assert.Empty(t, r.ByCapability("drawing"))
}

func TestCountByStatus(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{id: "a", status: StatusAvailable})
	r.Register(&stubAgent{id: "b", status: StatusAvailable})
	r.Register(&stubAgent{id: "c", status: StatusBusy})

	counts := r.CountByStatus()
	assert.Equal(t, 2, counts[StatusAvailable])
	assert.Equal(t, 1, counts[StatusBusy])
	assert.Equal(t, 0, counts[StatusOffline])
}

func TestCapabilitiesMatching(t *testing.T) {
	caps := Capabilities{
		Skills:              []string{"Writing"},
		SupportedCategories: []string{"support"},
	}

	assert.True(t, caps.HasSkill("writing"), "skills match case-insensitively")
	assert.False(t, caps.HasSkill("coding"))
	assert.True(t, caps.SupportsCategory("support"))
	assert.False(t, caps.SupportsCategory("Support"), "categories match case-sensitively")
}

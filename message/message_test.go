package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	msg := New("alice", "hello", "body")

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "hello", msg.Subject)
	assert.Equal(t, "body", msg.Content)
	assert.Equal(t, PriorityNormal, msg.Priority)
	assert.Empty(t, msg.ReceiverID)
	assert.Empty(t, msg.ConversationID)
}

func TestNewUniqueIDs(t *testing.T) {
	a := New("s", "sub", "c")
	b := New("s", "sub", "c")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestOptions(t *testing.T) {
	msg := New("alice", "hello", "body",
		WithCategory("support"),
		WithPriority(PriorityUrgent),
		WithConversationID("conv-1"),
		WithReceiver("bob"),
		WithMetadata("k", 42),
	)

	assert.Equal(t, "support", msg.Category)
	assert.Equal(t, PriorityUrgent, msg.Priority)
	assert.Equal(t, "conv-1", msg.ConversationID)
	assert.Equal(t, "bob", msg.ReceiverID)

	v, ok := msg.Meta("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMetadataBag(t *testing.T) {
	msg := New("s", "sub", "c")

	_, ok := msg.Meta("missing")
	assert.False(t, ok)

	msg.SetMeta("key", "v1")
	msg.SetMeta("key", "v2")
	v, ok := msg.Meta("key")
	require.True(t, ok)
	assert.Equal(t, "v2", v)

	assert.False(t, msg.SetMetaIfAbsent("key", "v3"))
	assert.True(t, msg.SetMetaIfAbsent("other", "x"))

	snapshot := msg.MetadataSnapshot()
	snapshot["key"] = "mutated"
	v, _ = msg.Meta("key")
	assert.Equal(t, "v2", v, "snapshot mutation must not leak back")
}

func TestTypedValues(t *testing.T) {
	msg := New("s", "sub", "c")

	assert.False(t, msg.BoolValue("missing"))

	msg.SetValue("Feature_dark_mode", true)
	assert.True(t, msg.BoolValue("Feature_dark_mode"))

	msg.SetValue("not_bool", "yes")
	assert.False(t, msg.BoolValue("not_bool"))
}

func TestCloneIsIndependent(t *testing.T) {
	msg := New("s", "sub", "c", WithMetadata("k", "original"))
	clone := msg.Clone()

	assert.Equal(t, msg.ID, clone.ID)
	assert.Equal(t, msg.SenderID, clone.SenderID)

	clone.SetMeta("k", "changed")
	clone.ReceiverID = "other"

	v, _ := msg.Meta("k")
	assert.Equal(t, "original", v)
	assert.Empty(t, msg.ReceiverID)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "Low", PriorityLow.String())
	assert.Equal(t, "Normal", PriorityNormal.String())
	assert.Equal(t, "High", PriorityHigh.String())
	assert.Equal(t, "Urgent", PriorityUrgent.String())
	assert.Equal(t, "Normal", Priority(99).String())
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityLow < PriorityNormal)
	assert.True(t, PriorityNormal < PriorityHigh)
	assert.True(t, PriorityHigh < PriorityUrgent)
}

func TestResult(t *testing.T) {
	ok := Ok("done")
	assert.True(t, ok.Success)
	assert.Equal(t, "done", ok.Response)
	assert.Empty(t, ok.Error)

	fail := Fail("boom")
	assert.False(t, fail.Success)
	assert.Equal(t, "boom", fail.Error)

	_, found := ok.GetData("missing")
	assert.False(t, found)
	ok.SetData("elapsed", 12)
	v, found := ok.GetData("elapsed")
	require.True(t, found)
	assert.Equal(t, 12, v)

	fwd := New("s", "sub", "c")
	ok.Forward(fwd)
	require.Len(t, ok.ForwardedMessages, 1)
	assert.Same(t, fwd, ok.ForwardedMessages[0])
}

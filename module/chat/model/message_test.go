package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDMKeySymmetric(t *testing.T) {
	assert.Equal(t, DMKey("alice", "bob"), DMKey("bob", "alice"))
	assert.Equal(t, "dm:alice:bob", DMKey("bob", "alice"))
	assert.Equal(t, "dm:alice:alice", DMKey("alice", "alice"))
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "ch:ch-1", ConversationID("alice", KindChannel, "ch-1"))
	assert.Equal(t, "dm:alice:bob", ConversationID("bob", KindDirect, "alice"))
}

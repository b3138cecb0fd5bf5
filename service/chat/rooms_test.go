package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinLeave(t *testing.T) {
	r := NewRooms()
	r.Join("ch-1", "c1")
	r.Join("ch-1", "c2")
	r.Join("ch-2", "c1")

	assert.ElementsMatch(t, []string{"c1", "c2"}, r.subscribers("ch-1"))
	assert.ElementsMatch(t, []string{"c1"}, r.subscribers("ch-2"))

	r.Leave("ch-1", "c1")
	assert.ElementsMatch(t, []string{"c2"}, r.subscribers("ch-1"))

	// leaving twice is harmless
	r.Leave("ch-1", "c1")
	assert.ElementsMatch(t, []string{"c2"}, r.subscribers("ch-1"))
}

func TestRoomsLeaveAll(t *testing.T) {
	r := NewRooms()
	r.Join("ch-1", "c1")
	r.Join("ch-2", "c1")
	r.Join("ch-2", "c2")

	r.LeaveAll("c1")
	assert.Nil(t, r.subscribers("ch-1"))
	assert.ElementsMatch(t, []string{"c2"}, r.subscribers("ch-2"))
}

func TestRoomsUnknownChannel(t *testing.T) {
	r := NewRooms()
	assert.Nil(t, r.subscribers("ghost"))
	r.Leave("ghost", "c1")
	r.LeaveAll("c1")
}

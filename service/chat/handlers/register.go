package handlers

import "syncchat/service/chat"

// RegisterAll wires every frame handler into the gateway dispatcher.
func RegisterAll(s *chat.Server) {
	s.Disp().Register(NewAuthHandler())
	s.Disp().Register(NewMessageHandler())
	s.Disp().Register(NewJoinChannelHandler())
	s.Disp().Register(NewLeaveChannelHandler())
	s.Disp().Register(NewPingHandler())
}

package handler

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health    *HealthHandler
	Member    *MemberHandler
	Rental    *RentalHandler
	ChatRoom  *ChatRoomHandler
	WebSocket *WebSocketHandler
}

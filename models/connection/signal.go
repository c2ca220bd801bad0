package connection

// Inbound message types (client -> server)
const (
	TypeCreateRoom  = "CREATE_ROOM"
	TypeJoinRoom    = "JOIN_ROOM"
	TypePlayerReady = "PLAYER_READY"
	TypeFire        = "FIRE"
	TypeReset       = "RESET"
)

// Outbound message types (server -> client)
const (
	TypeRoomCreated    = "ROOM_CREATED"
	TypePlayerAssigned = "PLAYER_ASSIGNED"
	TypeRoomJoined     = "ROOM_JOINED"
	TypeRoomFull       = "ROOM_FULL"
	TypeRoomNotFound   = "ROOM_NOT_FOUND"
	TypeRoomReady      = "ROOM_READY"
	TypeServerState    = "SERVER_STATE"
	TypePlayerLeft     = "PLAYER_LEFT"
	TypeDisconnect     = "DISCONNECT"
	TypeError          = "ERROR"
)

// Every message on the wire carries "type"; Signal is
// decoded first to pick the handler.
type Signal struct {
	Type string `json:"type"`
}

func NewSignal(msgType string) Signal {
	return Signal{Type: msgType}
}

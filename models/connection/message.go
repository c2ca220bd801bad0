package connection

type Message[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

func NewMessage[T any](msgType string) Message[T] {
	return Message[T]{Type: msgType}
}

func (m *Message[T]) AddPayload(payload T) {
	m.Payload = payload
}

// StateMessage is the SERVER_STATE envelope; it carries "gameState"
// instead of "payload".
type StateMessage struct {
	Type      string    `json:"type"`
	GameState GameState `json:"gameState"`
}

func NewStateMessage(state GameState) StateMessage {
	return StateMessage{Type: TypeServerState, GameState: state}
}

func NewErrorMessage(message string) Message[RespError] {
	msg := NewMessage[RespError](TypeError)
	msg.AddPayload(RespError{Message: message})
	return msg
}

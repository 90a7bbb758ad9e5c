package session

import "context"

// RoomTransport подписывает устройство на персональный канал пользователя в транспорте
// реального времени. Протокол транспорта находится вне движка.
type RoomTransport interface {
	Join(ctx context.Context, room string) error
	Leave(ctx context.Context, room string) error
}

type nopTransport struct{}

func (nopTransport) Join(context.Context, string) error  { return nil }
func (nopTransport) Leave(context.Context, string) error { return nil }

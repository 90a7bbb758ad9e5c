package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
)

type stubRemoteCart struct {
	server  []model.CartLine
	cartErr error
	saveErr error

	saved     []model.CartLine
	saveCalls int
}

func (s *stubRemoteCart) Cart(context.Context, string) ([]model.CartLine, error) {
	return s.server, s.cartErr
}

func (s *stubRemoteCart) SaveCart(_ context.Context, _ string, lines []model.CartLine) error {
	s.saveCalls++
	s.saved = lines
	return s.saveErr
}

type stubGuestCart struct {
	lines   []model.CartLine
	readErr error
	cleared bool
}

func (s *stubGuestCart) GuestCart(context.Context) ([]model.CartLine, error) {
	return s.lines, s.readErr
}

func (s *stubGuestCart) ClearGuestCart(context.Context) error {
	s.cleared = true
	s.lines = nil
	return nil
}

func TestMergeLines_Additive(t *testing.T) {
	server := []model.CartLine{
		{ProductID: "a", Name: "server A", Quantity: 2},
		{ProductID: "b", Name: "B", Quantity: 1},
	}
	guest := []model.CartLine{
		{ProductID: "a", Name: "guest A", Quantity: 3},
		{ProductID: "c", Name: "C", Quantity: 4},
	}

	merged := MergeLines(server, guest)

	require.Len(t, merged, 3)
	assert.Equal(t, model.CartLine{ProductID: "a", Name: "server A", Quantity: 5}, merged[0])
	assert.Equal(t, 1, merged[1].Quantity)
	assert.Equal(t, "c", merged[2].ProductID)
	assert.Equal(t, 4, merged[2].Quantity)
}

func TestMergeLines_Clamp(t *testing.T) {
	merged := MergeLines(
		[]model.CartLine{{ProductID: "a", Quantity: 60}, {ProductID: "z", Quantity: 0}},
		[]model.CartLine{{ProductID: "a", Quantity: 60}},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, 99, merged[0].Quantity)
	assert.Equal(t, 1, merged[1].Quantity)
}

func TestMerge_EmptyGuestIsNoop(t *testing.T) {
	remote := &stubRemoteCart{}
	m := NewMerger(remote, &stubGuestCart{}, nil)

	assert.False(t, m.Merge(context.Background(), "u1"))
	assert.Zero(t, remote.saveCalls)
}

func TestMerge_PushesAndClearsGuest(t *testing.T) {
	remote := &stubRemoteCart{server: []model.CartLine{{ProductID: "a", Quantity: 1}}}
	guest := &stubGuestCart{lines: []model.CartLine{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}}
	m := NewMerger(remote, guest, nil)

	merged := m.Merge(context.Background(), "u1")

	require.True(t, merged)
	assert.True(t, guest.cleared)
	require.Len(t, remote.saved, 2)
	assert.Equal(t, 3, remote.saved[0].Quantity)
}

func TestMerge_MissingServerCartTreatedAsEmpty(t *testing.T) {
	remote := &stubRemoteCart{cartErr: &gateway.Error{StatusCode: 404, Message: "cart not found"}}
	guest := &stubGuestCart{lines: []model.CartLine{{ProductID: "a", Quantity: 2}}}
	m := NewMerger(remote, guest, nil)

	require.True(t, m.Merge(context.Background(), "u1"))
	assert.Equal(t, []model.CartLine{{ProductID: "a", Quantity: 2}}, remote.saved)
}

func TestMerge_FailuresAbortSilently(t *testing.T) {
	tests := []struct {
		name   string
		remote *stubRemoteCart
		guest  *stubGuestCart
	}{
		{
			name:   "guest read fails",
			remote: &stubRemoteCart{},
			guest:  &stubGuestCart{readErr: errors.New("disk")},
		},
		{
			name:   "server fetch fails",
			remote: &stubRemoteCart{cartErr: &gateway.Error{StatusCode: 500, Message: "down"}},
			guest:  &stubGuestCart{lines: []model.CartLine{{ProductID: "a", Quantity: 1}}},
		},
		{
			name:   "save fails",
			remote: &stubRemoteCart{saveErr: errors.New("timeout")},
			guest:  &stubGuestCart{lines: []model.CartLine{{ProductID: "a", Quantity: 1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMerger(tt.remote, tt.guest, nil)
			assert.False(t, m.Merge(context.Background(), "u1"))
			assert.False(t, tt.guest.cleared)
		})
	}
}

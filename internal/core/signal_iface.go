//go:generate mockgen -source=signal_iface.go -destination=mock/signal_mock.go -package=mock

package core

// Frame is one encoded envelope ready for the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: a full or closed channel returns an error.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

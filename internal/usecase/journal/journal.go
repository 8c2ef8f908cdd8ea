package journal

import (
	"encoding/binary"
	stderrors "errors"
	"math/big"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	"github.com/muhammadchandra19/limit-order-engine/pkg/errors"
)

// ErrCorrupt marks a stored entry that cannot be decoded.
var ErrCorrupt = stderrors.New("journal entry corrupt")

// Store persists order state transitions in a pebble keyspace, one record per
// order address, overwritten on every transition.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the journal at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.NewTracer("failed to open journal").Wrap(err)
	}
	return &Store{db: db}, nil
}

// Record overwrites the entry for the given order.
func (s *Store) Record(order common.Address, e journalv1.Entry) error {
	if err := s.db.Set(order.Bytes(), encodeEntry(e), pebble.Sync); err != nil {
		return errors.NewTracer("failed to record journal entry").Wrap(err)
	}
	return nil
}

// Load returns the last recorded entry for the given order.
func (s *Store) Load(order common.Address) (journalv1.Entry, bool, error) {
	value, closer, err := s.db.Get(order.Bytes())
	if err == pebble.ErrNotFound {
		return journalv1.Entry{}, false, nil
	}
	if err != nil {
		return journalv1.Entry{}, false, errors.NewTracer("failed to load journal entry").Wrap(err)
	}
	defer closer.Close()

	e, err := decodeEntry(value)
	if err != nil {
		return journalv1.Entry{}, false, err
	}
	return e, true, nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry layout: status byte, int64 timestamp, then the two amounts as
// length-prefixed big-endian big.Int bytes.
func encodeEntry(e journalv1.Entry) []byte {
	receive := bigBytes(e.CurrentReceive)
	remaining := bigBytes(e.SpentRemaining)

	buf := make([]byte, 0, 1+8+2+len(receive)+2+len(remaining))
	buf = append(buf, e.Status)
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.UpdatedAt))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(receive)))
	buf = append(buf, receive...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(remaining)))
	buf = append(buf, remaining...)
	return buf
}

func decodeEntry(buf []byte) (journalv1.Entry, error) {
	if len(buf) < 1+8+2 {
		return journalv1.Entry{}, ErrCorrupt
	}
	e := journalv1.Entry{
		Status:    buf[0],
		UpdatedAt: int64(binary.BigEndian.Uint64(buf[1:9])),
	}
	rest := buf[9:]

	receive, rest, ok := takeBig(rest)
	if !ok {
		return journalv1.Entry{}, ErrCorrupt
	}
	remaining, _, ok := takeBig(rest)
	if !ok {
		return journalv1.Entry{}, ErrCorrupt
	}
	e.CurrentReceive = receive
	e.SpentRemaining = remaining
	return e, nil
}

func bigBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

func takeBig(buf []byte) (*big.Int, []byte, bool) {
	if len(buf) < 2 {
		return nil, nil, false
	}
	n := int(binary.BigEndian.Uint16(buf[:2]))
	buf = buf[2:]
	if len(buf) < n {
		return nil, nil, false
	}
	return new(big.Int).SetBytes(buf[:n]), buf[n:], true
}

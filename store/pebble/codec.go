package pebble

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/types"
)

// Key layout:
//
//	seq/<name>            8-byte big-endian counter
//	entry/<id>            CBOR entryRecord, id as 8-byte big-endian
//
// Big-endian ids make the lexical key order match numeric id order.
var (
	seqPrefix   = []byte("seq/")
	entryPrefix = []byte("entry/")
)

// entryRecord is the on-disk form of an entry. Quantities are kept as
// canonical decimal strings.
type entryRecord struct {
	_      struct{} `cbor:",toarray"`
	ID     uint64
	Owner  string
	Asset  string
	Amount string
	Price  string
}

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once

	cachedDecMode     _cbor.DecMode
	cachedDecModeErr  error
	cachedDecModeOnce sync.Once
)

func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		opts := _cbor.EncOptions{
			// Deterministic output so equal entries encode to equal bytes
			Sort: _cbor.SortCoreDeterministic,
		}
		cachedEncMode, cachedEncModeErr = opts.EncMode()
	})
	return cachedEncMode, cachedEncModeErr
}

func getDecMode() (_cbor.DecMode, error) {
	cachedDecModeOnce.Do(func() {
		opts := _cbor.DecOptions{
			DupMapKey: _cbor.DupMapKeyEnforcedAPF,
		}
		cachedDecMode, cachedDecModeErr = opts.DecMode()
	})
	return cachedDecMode, cachedDecModeErr
}

func encodeEntry(e *entry.Entry) ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(entryRecord{
		ID:     e.ID.Uint64(),
		Owner:  e.Owner.String(),
		Asset:  e.Asset.String(),
		Amount: e.Amount.String(),
		Price:  e.Price.String(),
	})
}

func decodeEntry(data []byte) (*entry.Entry, error) {
	dm, err := getDecMode()
	if err != nil {
		return nil, err
	}

	var rec entryRecord
	if err := dm.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	amount, err := types.ParseQuantity(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("decode entry %d amount: %w", rec.ID, err)
	}
	price, err := types.ParseQuantity(rec.Price)
	if err != nil {
		return nil, fmt.Errorf("decode entry %d price: %w", rec.ID, err)
	}

	return &entry.Entry{
		ID:     id.EntryID(rec.ID),
		Owner:  id.Address(rec.Owner),
		Asset:  id.Address(rec.Asset),
		Amount: amount,
		Price:  price,
	}, nil
}

func seqKey(name string) []byte {
	return append(append([]byte{}, seqPrefix...), name...)
}

func entryKey(entryID id.EntryID) []byte {
	key := make([]byte, len(entryPrefix)+8)
	copy(key, entryPrefix)
	binary.BigEndian.PutUint64(key[len(entryPrefix):], entryID.Uint64())
	return key
}

// entryUpperBound is the first key past every entry key.
func entryUpperBound() []byte {
	key := append([]byte{}, entryPrefix...)
	key[len(key)-1]++
	return key
}

func encodeCounter(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeCounter(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.New("invalid sequence record length")
	}
	return binary.BigEndian.Uint64(b), nil
}

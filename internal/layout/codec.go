package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// ErrMalformedAccount is returned when account data does not match the
// declared layout size. It is never retried.
var ErrMalformedAccount = errors.New("malformed account")

const pubkeyLen = 32

// checkSize requires data to be exactly want bytes long.
func checkSize(name string, data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("%w: %s is %d bytes, got %d", ErrMalformedAccount, name, want, len(data))
	}
	return nil
}

// checkMinSize accepts trailing bytes past the fixed prefix.
func checkMinSize(name string, data []byte, want int) error {
	if len(data) < want {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrMalformedAccount, name, want, len(data))
	}
	return nil
}

func readU64(data []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(data[off : off+8])
}

func putU64(data []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(data[off:off+8], v)
}

// ReadUint128 reads a 128-bit little-endian integer stored as two u64 halves,
// low half first.
func ReadUint128(data []byte, off int) uint128.Uint128 {
	lo := readU64(data, off)
	hi := readU64(data, off+8)
	return uint128.New(lo, hi)
}

func putUint128(data []byte, off int, v uint128.Uint128) {
	putU64(data, off, v.Lo)
	putU64(data, off+8, v.Hi)
}

// Uint128Big returns hi*2^64 + lo.
func Uint128Big(v uint128.Uint128) *big.Int {
	out := new(big.Int).SetUint64(v.Hi)
	out.Lsh(out, 64)
	return out.Add(out, new(big.Int).SetUint64(v.Lo))
}

func readPubkey(data []byte, off int) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], data[off:off+pubkeyLen])
	return pk
}

func putPubkey(data []byte, off int, pk solana.PublicKey) {
	copy(data[off:off+pubkeyLen], pk[:])
}

// Field tables: offsets paired with struct field pointers. Decoders and
// encoders walk the same table.
type u64Field struct {
	off int
	v   *uint64
}

type u128Field struct {
	off int
	v   *uint128.Uint128
}

type keyField struct {
	off int
	v   *solana.PublicKey
}

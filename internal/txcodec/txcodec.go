// Package txcodec decodes the opaque transaction envelope carried in a
// block. The upstream wire format is assumed decodable by an external
// codec library and treated as out of scope by the original; no such
// library (borsh or otherwise) appears anywhere in the reference code, so
// this package implements the minimal tagged binary layout directly
// against encoding/binary (type tag, fee triple, code hash, data, memo).
// It is intentionally the one place in the indexer that talks about raw
// bytes instead of chain.Transaction values.
package txcodec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"namadexer/internal/chain"
)

// Envelope is the parsed outer transaction, before code-type dispatch.
type Envelope struct {
	Type chain.TxType

	// HeaderHash is the canonical id of this transaction: for Raw and
	// Decrypted it is sha256 of the envelope re-stamped as Raw; for
	// Wrapper and Protocol it is sha256 of the envelope as received.
	HeaderHash [32]byte

	// Wrapper-only.
	FeeAmountPerGasUnit string
	FeeToken            string
	GasLimitMultiplier  string

	// Raw/Decrypted-only.
	CodeHash [32]byte
	Data     []byte
	Memo     *string
}

var tagByType = map[chain.TxType]byte{
	chain.TxTypeRaw:       0,
	chain.TxTypeWrapper:   1,
	chain.TxTypeDecrypted: 2,
	chain.TxTypeProtocol:  3,
}

var typeByTag = map[byte]chain.TxType{
	0: chain.TxTypeRaw,
	1: chain.TxTypeWrapper,
	2: chain.TxTypeDecrypted,
	3: chain.TxTypeProtocol,
}

// Decode parses raw transaction bytes into an Envelope.
func Decode(raw []byte) (*Envelope, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("txcodec: empty transaction")
	}
	txType, ok := typeByTag[raw[0]]
	if !ok {
		return nil, fmt.Errorf("txcodec: unknown tx type tag %d", raw[0])
	}

	env := &Envelope{Type: txType}
	body := raw[1:]

	switch txType {
	case chain.TxTypeWrapper:
		amount, rest, err := readString(body)
		if err != nil {
			return nil, fmt.Errorf("txcodec: fee amount: %w", err)
		}
		token, rest, err := readString(rest)
		if err != nil {
			return nil, fmt.Errorf("txcodec: fee token: %w", err)
		}
		gasLimit, _, err := readString(rest)
		if err != nil {
			return nil, fmt.Errorf("txcodec: gas limit: %w", err)
		}
		env.FeeAmountPerGasUnit = amount
		env.FeeToken = token
		env.GasLimitMultiplier = gasLimit
		env.HeaderHash = sha256.Sum256(raw)

	case chain.TxTypeRaw, chain.TxTypeDecrypted:
		if len(body) < 32 {
			return nil, fmt.Errorf("txcodec: truncated code hash")
		}
		copy(env.CodeHash[:], body[:32])
		rest := body[32:]

		data, rest, err := readBytes(rest)
		if err != nil {
			return nil, fmt.Errorf("txcodec: data section: %w", err)
		}
		env.Data = data

		if len(rest) > 0 && rest[0] == 1 {
			memo, _, err := readString(rest[1:])
			if err != nil {
				return nil, fmt.Errorf("txcodec: memo section: %w", err)
			}
			env.Memo = &memo
		}

		if txType == chain.TxTypeDecrypted {
			env.HeaderHash = rawHashAsRaw(raw)
		} else {
			env.HeaderHash = sha256.Sum256(raw)
		}

	case chain.TxTypeProtocol:
		env.HeaderHash = sha256.Sum256(raw)
	}

	return env, nil
}

// rawHashAsRaw recomputes the header hash of a Decrypted envelope as if its
// tag byte were Raw, a chain-specific quirk of how wrapper/decrypted pairs
// are hashed.
func rawHashAsRaw(raw []byte) [32]byte {
	restamped := make([]byte, len(raw))
	copy(restamped, raw)
	restamped[0] = tagByType[chain.TxTypeRaw]
	return sha256.Sum256(restamped)
}

// Encode is the inverse of Decode, used by tests and fixture generation.
func Encode(env *Envelope) []byte {
	var buf bytes.Buffer
	buf.WriteByte(tagByType[env.Type])

	switch env.Type {
	case chain.TxTypeWrapper:
		writeString(&buf, env.FeeAmountPerGasUnit)
		writeString(&buf, env.FeeToken)
		writeString(&buf, env.GasLimitMultiplier)
	case chain.TxTypeRaw, chain.TxTypeDecrypted:
		buf.Write(env.CodeHash[:])
		writeBytes(&buf, env.Data)
		if env.Memo != nil {
			buf.WriteByte(1)
			writeString(&buf, *env.Memo)
		} else {
			buf.WriteByte(0)
		}
	case chain.TxTypeProtocol:
	}
	return buf.Bytes()
}

func readBytes(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return nil, nil, fmt.Errorf("truncated payload: want %d have %d", n, len(b))
	}
	return b[:n], b[n:], nil
}

func readString(b []byte) (string, []byte, error) {
	data, rest, err := readBytes(b)
	if err != nil {
		return "", nil, err
	}
	return string(data), rest, nil
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

// Package benchmark compares the schema-driven codec with hand-written
// wire.Message bindings and with protobuf's dynamic messages.
//
// The bindings below mirror testdata/ledger.proto the way a code generator
// would emit them.
package benchmark

import "github.com/anirudhraja/verilite/wire"

type Coin struct {
	Amount uint64
	Denom  string
}

var denomBounds = wire.AtMost(16)

func (c *Coin) EncodedLen() int {
	return wire.Uint64Len(1, c.Amount) + wire.StringLen(2, c.Denom)
}

func (c *Coin) EncodeFields(e *wire.Encoder) error {
	if err := e.EncodeUint64(1, false, c.Amount); err != nil {
		return err
	}
	return e.EncodeString(2, false, c.Denom, denomBounds)
}

func (c *Coin) DecodeFields(d *wire.Decoder) error {
	var err error
	if c.Amount, err = d.DecodeUint64(1); err != nil {
		return err
	}
	c.Denom, err = d.DecodeString(2, denomBounds)
	return err
}

// Transfer is ledger.Transfer. Memo is omitted from the encoding when empty.
// Digest is filled on decode when the decoder hashes; it is never encoded.
type Transfer struct {
	Nonce   uint64
	Memo    string
	Delta   int64
	Urgent  bool
	Fee     Coin
	Outputs []Coin
	Ref     []byte
	Digest  wire.Digest
}

var refBounds = wire.Range(4, 8)

func (t *Transfer) EncodedLen() int {
	n := wire.Uint64Len(1, t.Nonce)
	if t.Memo != "" {
		n += wire.StringLen(2, t.Memo)
	}
	n += wire.Sint64Len(3, t.Delta)
	n += wire.BoolLen(4)
	n += wire.MessageLen(5, t.Fee.EncodedLen())
	n += wire.MessageSequenceLen(6, t.Outputs)
	n += wire.BytesLen(7, len(t.Ref))
	return n
}

func (t *Transfer) EncodeFields(e *wire.Encoder) error {
	if err := e.EncodeUint64(1, true, t.Nonce); err != nil {
		return err
	}
	if t.Memo != "" {
		if err := e.EncodeString(2, false, t.Memo, wire.Unbounded); err != nil {
			return err
		}
	}
	if err := e.EncodeSint64(3, false, t.Delta); err != nil {
		return err
	}
	if err := e.EncodeBool(4, false, t.Urgent); err != nil {
		return err
	}
	if err := e.EncodeMessage(5, false, &t.Fee); err != nil {
		return err
	}
	if err := wire.EncodeSequence(e, 6, false, t.Outputs); err != nil {
		return err
	}
	return e.EncodeBytes(7, false, t.Ref, refBounds)
}

func (t *Transfer) DecodeFields(d *wire.Decoder) error {
	var err error
	if t.Nonce, err = d.DecodeUint64(1); err != nil {
		return err
	}
	if err = d.CheckCritical(1, true); err != nil {
		return err
	}
	ok, err := d.Has(2)
	if err != nil {
		return err
	}
	if ok {
		if t.Memo, err = d.DecodeString(2, wire.Unbounded); err != nil {
			return err
		}
	}
	if t.Delta, err = d.DecodeSint64(3); err != nil {
		return err
	}
	if t.Urgent, err = d.DecodeBool(4); err != nil {
		return err
	}
	if err = d.DecodeMessage(5, &t.Fee); err != nil {
		return err
	}
	if t.Outputs, err = wire.DecodeSequence[Coin](d, 6); err != nil {
		return err
	}
	if t.Ref, err = d.DecodeBytes(7, refBounds); err != nil {
		return err
	}
	if d.Hashing() {
		t.Digest, err = d.FillDigest()
	}
	return err
}

// Values returns the transfer in the map form accepted by the dynamic codec.
func (t *Transfer) Values() map[string]any {
	outputs := make([]any, len(t.Outputs))
	for i, o := range t.Outputs {
		outputs[i] = map[string]any{"amount": o.Amount, "denom": o.Denom}
	}
	values := map[string]any{
		"nonce":   t.Nonce,
		"delta":   t.Delta,
		"urgent":  t.Urgent,
		"fee":     map[string]any{"amount": t.Fee.Amount, "denom": t.Fee.Denom},
		"outputs": outputs,
		"ref":     t.Ref,
	}
	if t.Memo != "" {
		values["memo"] = t.Memo
	}
	return values
}

package wire

// Hand-written message bindings shared by the package tests.

// coin has only scalar fields, so its digest is the hash of its encoding.
type coin struct {
	Amount uint64
	Denom  string
}

var denomBounds = AtMost(16)

func (c *coin) EncodedLen() int {
	return Uint64Len(1, c.Amount) + StringLen(2, c.Denom)
}

func (c *coin) EncodeFields(e *Encoder) error {
	if err := e.EncodeUint64(1, false, c.Amount); err != nil {
		return err
	}
	return e.EncodeString(2, false, c.Denom, denomBounds)
}

func (c *coin) DecodeFields(d *Decoder) error {
	var err error
	if c.Amount, err = d.DecodeUint64(1); err != nil {
		return err
	}
	c.Denom, err = d.DecodeString(2, denomBounds)
	return err
}

// transfer exercises every wire type. Memo is optional. Digest is filled
// when the decoder hashes.
type transfer struct {
	Nonce   uint64
	Memo    string
	Delta   int64
	Urgent  bool
	Fee     coin
	Outputs []coin
	Ref     []byte
	Digest  Digest
}

var refBounds = Range(4, 8)

func (t *transfer) EncodedLen() int {
	n := Uint64Len(1, t.Nonce)
	if t.Memo != "" {
		n += StringLen(2, t.Memo)
	}
	n += Sint64Len(3, t.Delta)
	n += BoolLen(4)
	n += MessageLen(5, t.Fee.EncodedLen())
	n += MessageSequenceLen(6, t.Outputs)
	n += BytesLen(7, len(t.Ref))
	return n
}

func (t *transfer) EncodeFields(e *Encoder) error {
	if err := e.EncodeUint64(1, true, t.Nonce); err != nil {
		return err
	}
	if t.Memo != "" {
		if err := e.EncodeString(2, false, t.Memo, Unbounded); err != nil {
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
	if err := EncodeSequence(e, 6, false, t.Outputs); err != nil {
		return err
	}
	return e.EncodeBytes(7, false, t.Ref, refBounds)
}

func (t *transfer) DecodeFields(d *Decoder) error {
	if err := t.decodeBody(d); err != nil {
		return err
	}
	if !d.Hashing() {
		return nil
	}
	var err error
	t.Digest, err = d.FillDigest()
	return err
}

func (t *transfer) decodeBody(d *Decoder) error {
	var err error
	if t.Nonce, err = d.DecodeUint64(1); err != nil {
		return err
	}
	ok, err := d.Has(2)
	if err != nil {
		return err
	}
	if ok {
		if t.Memo, err = d.DecodeString(2, Unbounded); err != nil {
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
	if t.Outputs, err = DecodeSequence[coin](d, 6); err != nil {
		return err
	}
	t.Ref, err = d.DecodeBytes(7, refBounds)
	return err
}

// legacyTransfer predates the memo, fee and outputs fields.
type legacyTransfer struct {
	Nonce  uint64
	Delta  int64
	Urgent bool
	Ref    []byte
}

func (t *legacyTransfer) EncodedLen() int {
	return Uint64Len(1, t.Nonce) + Sint64Len(3, t.Delta) + BoolLen(4) + BytesLen(7, len(t.Ref))
}

func (t *legacyTransfer) EncodeFields(e *Encoder) error {
	if err := e.EncodeUint64(1, true, t.Nonce); err != nil {
		return err
	}
	if err := e.EncodeSint64(3, false, t.Delta); err != nil {
		return err
	}
	if err := e.EncodeBool(4, false, t.Urgent); err != nil {
		return err
	}
	return e.EncodeBytes(7, false, t.Ref, refBounds)
}

func (t *legacyTransfer) DecodeFields(d *Decoder) error {
	var err error
	if t.Nonce, err = d.DecodeUint64(1); err != nil {
		return err
	}
	if t.Delta, err = d.DecodeSint64(3); err != nil {
		return err
	}
	if t.Urgent, err = d.DecodeBool(4); err != nil {
		return err
	}
	t.Ref, err = d.DecodeBytes(7, refBounds)
	return err
}

// extendedTransfer adds a trailing field 8 that transfer does not know.
type extendedTransfer struct {
	transfer
	Extra         uint64
	ExtraCritical bool
}

func (t *extendedTransfer) EncodedLen() int {
	return t.transfer.EncodedLen() + Uint64Len(8, t.Extra)
}

func (t *extendedTransfer) EncodeFields(e *Encoder) error {
	if err := t.transfer.EncodeFields(e); err != nil {
		return err
	}
	return e.EncodeUint64(8, t.ExtraCritical, t.Extra)
}

func (t *extendedTransfer) DecodeFields(d *Decoder) error {
	if err := t.transfer.decodeBody(d); err != nil {
		return err
	}
	var err error
	t.Extra, err = d.DecodeUint64(8)
	return err
}

// pair has two uint64 fields at tags 3 and 5.
type pair struct {
	A, B uint64
}

func (p *pair) EncodedLen() int { return Uint64Len(3, p.A) + Uint64Len(5, p.B) }

func (p *pair) EncodeFields(e *Encoder) error {
	if err := e.EncodeUint64(3, false, p.A); err != nil {
		return err
	}
	return e.EncodeUint64(5, false, p.B)
}

func (p *pair) DecodeFields(d *Decoder) error {
	var err error
	if p.A, err = d.DecodeUint64(3); err != nil {
		return err
	}
	p.B, err = d.DecodeUint64(5)
	return err
}

// nest is a recursive message for exercising the depth limit.
type nest struct {
	Child *nest
}

func chain(depth int) *nest {
	n := &nest{}
	for i := 0; i < depth; i++ {
		n = &nest{Child: n}
	}
	return n
}

func (n *nest) EncodedLen() int {
	if n.Child == nil {
		return 0
	}
	return MessageLen(1, n.Child.EncodedLen())
}

func (n *nest) EncodeFields(e *Encoder) error {
	if n.Child == nil {
		return nil
	}
	return e.EncodeMessage(1, false, n.Child)
}

func (n *nest) DecodeFields(d *Decoder) error {
	ok, err := d.Has(1)
	if err != nil || !ok {
		return err
	}
	n.Child = &nest{}
	return d.DecodeMessage(1, n.Child)
}

// payment is a variant: exactly one of a coin (tag 1) or a refund amount
// (tag 2).
type payment struct {
	Coin   *coin
	Refund uint64
}

func (p *payment) EncodedLen() int {
	if p.Coin != nil {
		return MessageLen(1, p.Coin.EncodedLen())
	}
	return Uint64Len(2, p.Refund)
}

func (p *payment) EncodeFields(e *Encoder) error {
	if p.Coin != nil {
		return e.EncodeMessage(1, false, p.Coin)
	}
	return e.EncodeUint64(2, false, p.Refund)
}

func (p *payment) DecodeFields(d *Decoder) error {
	tag, err := d.PeekTag()
	if err != nil {
		return err
	}
	switch tag {
	case 1:
		p.Coin = &coin{}
		err = d.DecodeMessage(1, p.Coin)
	case 2:
		p.Refund, err = d.DecodeUint64(2)
	default:
		return UnknownTagError(tag)
	}
	if err != nil {
		return err
	}
	return d.ExpectEnd()
}

// critical carries a single critical field.
type critical struct {
	Value uint64
}

func (c *critical) EncodedLen() int               { return Uint64Len(1, c.Value) }
func (c *critical) EncodeFields(e *Encoder) error { return e.EncodeUint64(1, true, c.Value) }
func (c *critical) DecodeFields(d *Decoder) error {
	var err error
	if c.Value, err = d.DecodeUint64(1); err != nil {
		return err
	}
	return d.CheckCritical(1, true)
}

func sampleTransfer() transfer {
	return transfer{
		Nonce:  42,
		Memo:   "rent",
		Delta:  -1500,
		Urgent: true,
		Fee:    coin{Amount: 3, Denom: "uatom"},
		Outputs: []coin{
			{Amount: 1000, Denom: "uatom"},
			{Amount: 1 << 40, Denom: "ubtc"},
			{Amount: 0, Denom: ""},
		},
		Ref: []byte{0xde, 0xad, 0xbe, 0xef, 0x01},
	}
}

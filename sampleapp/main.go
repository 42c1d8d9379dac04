package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/anirudhraja/verilite"
	"github.com/anirudhraja/verilite/digest"
	"github.com/anirudhraja/verilite/wire"
)

type Coin struct {
	Amount uint64
	Denom  string
}

type Transfer struct {
	Nonce   uint64
	Memo    string
	Delta   int64
	Urgent  bool
	Fee     *Coin
	Outputs []Coin
	Ref     []byte
	Hash    wire.Digest `verilite:"digest"`
}

func main() {
	vl, err := verilite.New(verilite.WithProtoDirectories("testdata"))
	if err != nil {
		log.Fatalf("Failed to create verilite: %v", err)
	}

	if err := vl.LoadSchemaFromFile("ledger.proto"); err != nil {
		log.Fatalf("Failed to load ledger.proto: %v", err)
	}

	fmt.Println("🚀 Verilite Sample App - Self-describing messages with digests")
	fmt.Println(strings.Repeat("=", 70))

	demonstrateOptionalFields(vl)

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📋 Complete Transfer Demo:")
	fmt.Println(strings.Repeat("=", 70))

	transferData := map[string]interface{}{
		"nonce":  uint64(42),
		"memo":   "rent",
		"delta":  int64(-1500),
		"urgent": true,

		// Nested message
		"fee": map[string]interface{}{
			"amount": uint64(3),
			"denom":  "uatom",
		},

		// Sequence of messages
		"outputs": []map[string]interface{}{
			{"amount": uint64(1000), "denom": "uatom"},
			{"amount": uint64(1) << 40, "denom": "ubtc"},
			{"amount": uint64(0), "denom": ""},
		},

		// Between 4 and 8 bytes
		"ref": []byte{0xde, 0xad, 0xbe, 0xef, 0x01},
	}

	encodedData, err := vl.Marshal(transferData, "ledger.Transfer")
	if err != nil {
		log.Fatalf("Failed to marshal transfer: %v", err)
	}
	fmt.Printf("\n📦 Encoded transfer: %d bytes\n", len(encodedData))
	fmt.Printf("   %x\n", encodedData)

	result, err := vl.Parse(encodedData, "ledger.Transfer")
	if err != nil {
		log.Fatalf("Failed to parse transfer: %v", err)
	}

	fmt.Println("\n✅ Successfully marshaled and parsed the transfer!")
	fmt.Printf("🔢 Nonce: %v, Memo: %v, Delta: %v\n", result["nonce"], result["memo"], result["delta"])
	fee := result["fee"].(map[string]interface{})
	fmt.Printf("💸 Fee: %v %v\n", fee["amount"], fee["denom"])
	fmt.Printf("📤 Outputs: %d\n", len(result["outputs"].([]map[string]interface{})))
	fmt.Printf("🔏 Digest: %v\n", result["digest"])

	var transfer Transfer
	if err := vl.UnmarshalAs(encodedData, "ledger.Transfer", &transfer); err != nil {
		log.Fatalf("Failed to unmarshal into struct: %v", err)
	}
	fmt.Printf("🧱 Struct: nonce=%d fee=%+v outputs=%d hash=%s\n",
		transfer.Nonce, *transfer.Fee, len(transfer.Outputs), transfer.Hash)

	demonstrateDigests(vl)
	demonstrateVariants(vl)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("🎉 Scalars, nested messages, sequences, variants and digests all working!")
	fmt.Println(strings.Repeat("=", 70))
}

// demonstrateOptionalFields shows that an absent optional field costs nothing
// and decodes as missing, while an empty value is still encoded.
func demonstrateOptionalFields(vl *verilite.Verilite) {
	fmt.Println("\n🎯 Optional Fields Demo")
	fmt.Println(strings.Repeat("-", 60))

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"nonce":   uint64(7),
			"delta":   int64(0),
			"urgent":  false,
			"fee":     map[string]interface{}{"amount": uint64(1), "denom": "a"},
			"outputs": []interface{}{},
			"ref":     []byte{0, 0, 0, 0},
		}
	}

	withMemo := base()
	withMemo["memo"] = "hello"
	emptyMemo := base()
	emptyMemo["memo"] = ""

	for i, tc := range []struct {
		label  string
		values map[string]interface{}
	}{
		{"memo omitted", base()},
		{"memo set to \"hello\"", withMemo},
		{"memo set to \"\" (still encoded)", emptyMemo},
	} {
		encoded, err := vl.Marshal(tc.values, "ledger.Transfer")
		if err != nil {
			log.Fatalf("Failed to marshal %s: %v", tc.label, err)
		}
		decoded, err := vl.Parse(encoded, "ledger.Transfer")
		if err != nil {
			log.Fatalf("Failed to parse %s: %v", tc.label, err)
		}
		memo, present := decoded["memo"]
		fmt.Printf("\n%d️⃣ %s\n", i+1, tc.label)
		fmt.Printf("   📦 Encoded: %d bytes\n", len(encoded))
		fmt.Printf("   📝 Memo present: %v, value: %q\n", present, memo)
	}
}

// demonstrateDigests hashes the same coin with every supported algorithm.
func demonstrateDigests(vl *verilite.Verilite) {
	fmt.Println("\n🔏 Digest Algorithms")
	fmt.Println(strings.Repeat("-", 40))

	encoded, err := vl.Marshal(map[string]interface{}{"amount": 5, "denom": "ab"}, "ledger.Coin")
	if err != nil {
		log.Fatalf("Failed to marshal coin: %v", err)
	}

	for _, name := range digest.Names() {
		d, err := wire.DecodeDigest(nopMessage{}, encoded, digest.MustLookup(name))
		if err != nil {
			log.Fatalf("Failed to digest coin with %s: %v", name, err)
		}
		fmt.Printf("   %-12s %s\n", name, d)
	}
}

// demonstrateVariants encodes each alternative of ledger.Payment.
func demonstrateVariants(vl *verilite.Verilite) {
	fmt.Println("\n🔀 Variants")
	fmt.Println(strings.Repeat("-", 40))

	for _, values := range []map[string]interface{}{
		{"coin": map[string]interface{}{"amount": uint64(9), "denom": "uatom"}},
		{"refund": uint64(9)},
	} {
		encoded, err := vl.Marshal(values, "ledger.Payment")
		if err != nil {
			log.Fatalf("Failed to marshal payment: %v", err)
		}
		decoded, err := vl.Parse(encoded, "ledger.Payment")
		if err != nil {
			log.Fatalf("Failed to parse payment: %v", err)
		}
		fmt.Printf("   %x -> %v\n", encoded, decoded)
	}

	if _, err := vl.Marshal(map[string]interface{}{
		"coin":   map[string]interface{}{"amount": uint64(1), "denom": "a"},
		"refund": uint64(1),
	}, "ledger.Payment"); err != nil {
		fmt.Printf("   ⚠️  Two alternatives rejected: %v\n", err)
	}
}

// nopMessage skips every field, so its digest covers the whole input.
type nopMessage struct{}

func (nopMessage) EncodedLen() int                  { return 0 }
func (nopMessage) EncodeFields(*wire.Encoder) error { return nil }
func (nopMessage) DecodeFields(*wire.Decoder) error { return nil }

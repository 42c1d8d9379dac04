package verilite

import (
	"fmt"
	"log"
)

// Example demonstrates the Verilite API usage
func Example() {
	v, err := New(WithProtoDirectories("testdata"))
	if err != nil {
		log.Fatal(err)
	}
	if err := v.LoadSchemaFromFile("ledger.proto"); err != nil {
		log.Fatal(err)
	}

	data, err := v.Marshal(map[string]any{"amount": 5, "denom": "ab"}, "ledger.Coin")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Encoded: %x\n", data)

	parsed, err := v.Parse(data, "Coin")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Parsed:", parsed["amount"], parsed["denom"])

	digest, err := v.Digest(data, "Coin")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Digest:", digest)

	// Output:
	// Encoded: 250b4b056162
	// Parsed: 5 ab
	// Digest: 2e02b9ca56171f6f1cc2399cf85aae2919235b606ee1569a2b339f29aaa99da0
}

// Example demonstrates decoding into a Go struct
func ExampleVerilite_Unmarshal() {
	v, err := New(WithProtoDirectories("testdata"))
	if err != nil {
		log.Fatal(err)
	}
	if err := v.LoadSchemaFromFile("ledger.proto"); err != nil {
		log.Fatal(err)
	}

	data, err := v.Marshal(map[string]any{"refund": 9}, "Payment")
	if err != nil {
		log.Fatal(err)
	}

	type Payment struct {
		Coin   *Coin
		Refund uint64
	}
	var p Payment
	if err := v.Unmarshal(data, &p); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Payment: coin=%v refund=%d\n", p.Coin, p.Refund)

	// Output:
	// Payment: coin=<nil> refund=9
}

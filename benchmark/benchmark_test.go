package benchmark

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/anirudhraja/verilite"
	"github.com/anirudhraja/verilite/digest"
	"github.com/anirudhraja/verilite/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	client *verilite.Verilite

	simpleTransfer  Transfer
	complexTransfer Transfer
	simplePayload   []byte
	complexPayload  []byte

	coinDescriptor     protoreflect.MessageDescriptor
	transferDescriptor protoreflect.MessageDescriptor
	simpleProto        []byte
	complexProto       []byte
)

func init() {
	var err error
	client, err = verilite.New(verilite.WithProtoDirectories(filepath.Join("..", "testdata")))
	if err != nil {
		panic("Failed to create client: " + err.Error())
	}
	if err := client.LoadSchemaFromFile("ledger.proto"); err != nil {
		panic("Failed to load schema: " + err.Error())
	}

	simpleTransfer = Transfer{
		Nonce:   1,
		Fee:     Coin{Amount: 1, Denom: "uatom"},
		Outputs: []Coin{{Amount: 1000, Denom: "uatom"}},
		Ref:     []byte{1, 2, 3, 4},
	}
	complexTransfer = createComplexTransfer(64)

	if simplePayload, err = wire.Encode(&simpleTransfer); err != nil {
		panic("Failed to encode simple transfer: " + err.Error())
	}
	if complexPayload, err = wire.Encode(&complexTransfer); err != nil {
		panic("Failed to encode complex transfer: " + err.Error())
	}

	setupDynamicDescriptors()
	if simpleProto, err = proto.Marshal(toDynamicPB(&simpleTransfer)); err != nil {
		panic("Failed to marshal simple protobuf: " + err.Error())
	}
	if complexProto, err = proto.Marshal(toDynamicPB(&complexTransfer)); err != nil {
		panic("Failed to marshal complex protobuf: " + err.Error())
	}
}

func createComplexTransfer(outputs int) Transfer {
	t := Transfer{
		Nonce:  1 << 33,
		Memo:   "quarterly settlement for the eastern region",
		Delta:  -987654321,
		Urgent: true,
		Fee:    Coin{Amount: 2500, Denom: "uatom"},
		Ref:    []byte{0xde, 0xad, 0xbe, 0xef, 0xca, 0xfe, 0xba, 0xbe},
	}
	for i := 0; i < outputs; i++ {
		t.Outputs = append(t.Outputs, Coin{
			Amount: uint64(i+1) * 1_000_003,
			Denom:  fmt.Sprintf("denom-%d", i%7),
		})
	}
	return t
}

func setupDynamicDescriptors() {
	field := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, label descriptorpb.FieldDescriptorProto_Label, typeName string) *descriptorpb.FieldDescriptorProto {
		f := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Type:   typ.Enum(),
			Label:  label.Enum(),
		}
		if typeName != "" {
			f.TypeName = proto.String(typeName)
		}
		return f
	}
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	fileDesc := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("ledger.proto"),
		Package: proto.String("ledger"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Coin"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("amount", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT64, optional, ""),
					field("denom", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
				},
			},
			{
				Name: proto.String("Transfer"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("nonce", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT64, optional, ""),
					field("memo", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					field("delta", 3, descriptorpb.FieldDescriptorProto_TYPE_SINT64, optional, ""),
					field("urgent", 4, descriptorpb.FieldDescriptorProto_TYPE_BOOL, optional, ""),
					field("fee", 5, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, optional, ".ledger.Coin"),
					field("outputs", 6, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, repeated, ".ledger.Coin"),
					field("ref", 7, descriptorpb.FieldDescriptorProto_TYPE_BYTES, optional, ""),
				},
			},
		},
	}

	files, err := protodesc.NewFiles(&descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{fileDesc},
	})
	if err != nil {
		panic("Failed to create file descriptor: " + err.Error())
	}
	fd, err := files.FindFileByPath("ledger.proto")
	if err != nil {
		panic("Failed to find file descriptor: " + err.Error())
	}
	coinDescriptor = fd.Messages().ByName("Coin")
	transferDescriptor = fd.Messages().ByName("Transfer")
}

func coinPB(c Coin) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(coinDescriptor)
	fields := coinDescriptor.Fields()
	msg.Set(fields.ByName("amount"), protoreflect.ValueOfUint64(c.Amount))
	msg.Set(fields.ByName("denom"), protoreflect.ValueOfString(c.Denom))
	return msg
}

func toDynamicPB(t *Transfer) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(transferDescriptor)
	fields := transferDescriptor.Fields()
	msg.Set(fields.ByName("nonce"), protoreflect.ValueOfUint64(t.Nonce))
	msg.Set(fields.ByName("memo"), protoreflect.ValueOfString(t.Memo))
	msg.Set(fields.ByName("delta"), protoreflect.ValueOfInt64(t.Delta))
	msg.Set(fields.ByName("urgent"), protoreflect.ValueOfBool(t.Urgent))
	msg.Set(fields.ByName("fee"), protoreflect.ValueOfMessage(coinPB(t.Fee)))
	list := msg.Mutable(fields.ByName("outputs")).List()
	for _, o := range t.Outputs {
		list.Append(protoreflect.ValueOfMessage(coinPB(o)))
	}
	msg.Set(fields.ByName("ref"), protoreflect.ValueOfBytes(t.Ref))
	return msg
}

// ===== DECODE BENCHMARKS =====

func BenchmarkSimple_Verilite(b *testing.B) {
	b.ReportMetric(float64(len(simplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := client.Parse(simplePayload, "ledger.Transfer")
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkSimple_Bindings(b *testing.B) {
	b.ReportMetric(float64(len(simplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var t Transfer
		if err := wire.Decode(&t, simplePayload, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimple_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(simpleProto)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		message := dynamicpb.NewMessage(transferDescriptor)
		if err := proto.Unmarshal(simpleProto, message); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComplex_Verilite(b *testing.B) {
	b.ReportMetric(float64(len(complexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := client.Parse(complexPayload, "ledger.Transfer")
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkComplex_Bindings(b *testing.B) {
	b.ReportMetric(float64(len(complexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var t Transfer
		if err := wire.Decode(&t, complexPayload, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComplex_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(complexProto)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		message := dynamicpb.NewMessage(transferDescriptor)
		if err := proto.Unmarshal(complexProto, message); err != nil {
			b.Fatal(err)
		}
	}
}

// ===== ENCODE BENCHMARKS =====

func BenchmarkEncode_Verilite(b *testing.B) {
	values := complexTransfer.Values()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := client.Marshal(values, "ledger.Transfer"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode_Bindings(b *testing.B) {
	buf := make([]byte, complexTransfer.EncodedLen())
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := wire.EncodeTo(buf, &complexTransfer); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode_DynamicPB(b *testing.B) {
	msg := toDynamicPB(&complexTransfer)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := proto.Marshal(msg); err != nil {
			b.Fatal(err)
		}
	}
}

// ===== DIGEST BENCHMARKS =====

func BenchmarkDigest(b *testing.B) {
	for _, name := range digest.Names() {
		newHash := digest.MustLookup(name)
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(complexPayload)))
			for i := 0; i < b.N; i++ {
				var t Transfer
				if _, err := wire.DecodeDigest(&t, complexPayload, newHash); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ===== VERIFICATION TESTS =====

func TestBenchmarkVerification(t *testing.T) {
	t.Logf("Simple payload: %d bytes (protobuf %d bytes)", len(simplePayload), len(simpleProto))
	t.Logf("Complex payload: %d bytes (protobuf %d bytes)", len(complexPayload), len(complexProto))

	for _, tc := range []struct {
		name     string
		transfer *Transfer
		payload  []byte
		pb       []byte
	}{
		{"simple", &simpleTransfer, simplePayload, simpleProto},
		{"complex", &complexTransfer, complexPayload, complexProto},
	} {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := client.Marshal(tc.transfer.Values(), "ledger.Transfer")
			require.NoError(t, err)
			assert.Equal(t, tc.payload, encoded, "dynamic and bound encodings differ")

			var decoded Transfer
			require.NoError(t, wire.Decode(&decoded, tc.payload, nil))
			assert.Equal(t, *tc.transfer, decoded)

			parsed, err := client.Parse(tc.payload, "ledger.Transfer")
			require.NoError(t, err)
			assert.Len(t, parsed["outputs"], len(tc.transfer.Outputs))

			dynamicDigest, err := client.Digest(tc.payload, "ledger.Transfer")
			require.NoError(t, err)
			boundDigest, err := wire.DecodeDigest(&Transfer{}, tc.payload, digest.MustLookup(digest.SHA256))
			require.NoError(t, err)
			assert.Equal(t, dynamicDigest, boundDigest)
			assert.Equal(t, dynamicDigest.String(), parsed["digest"].(wire.Digest).String())

			message := dynamicpb.NewMessage(transferDescriptor)
			require.NoError(t, proto.Unmarshal(tc.pb, message))
			assert.True(t, proto.Equal(toDynamicPB(tc.transfer), message))
		})
	}
}

// BenchmarkCompare_1K reports allocations for 1000 decodes of the complex
// payload with each decoder.
func BenchmarkCompare_1K(b *testing.B) {
	const N = 1000
	b.Logf("Running each decode %d times", N)

	allocs := testing.AllocsPerRun(N, func() {
		if _, err := client.Parse(complexPayload, "ledger.Transfer"); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("Verilite.Parse: %d allocs/op", int(allocs))

	allocs = testing.AllocsPerRun(N, func() {
		var t Transfer
		if err := wire.Decode(&t, complexPayload, nil); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("Hand-written bindings: %d allocs/op", int(allocs))

	sha := digest.MustLookup(digest.SHA256)
	allocs = testing.AllocsPerRun(N, func() {
		var t Transfer
		if _, err := wire.DecodeDigest(&t, complexPayload, sha); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("Hand-written bindings with digest: %d allocs/op", int(allocs))

	allocs = testing.AllocsPerRun(N, func() {
		msg := dynamicpb.NewMessage(transferDescriptor)
		if err := proto.Unmarshal(complexProto, msg); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("DynamicPB: %d allocs/op", int(allocs))
}

func TestBindingDigestMatchesVector(t *testing.T) {
	// The "transfer" conformance vector.
	payload, err := hex.DecodeString("35554b0972656e74671b83ad1325034b0b7561746f6dcf1a051325154b0b7561746f6d1325294b0b756f736d6fe90901020304")
	require.NoError(t, err)
	want, err := wire.ParseDigest("6673bdcb1d6222ac002980996520e711ce2a79556d67ddcbab2e3dfc9fd9da25")
	require.NoError(t, err)

	var got Transfer
	require.NoError(t, wire.Decode(&got, payload, digest.MustLookup(digest.SHA256)))
	assert.Equal(t, want, got.Digest)

	fromDecoder, err := wire.DecodeDigest(&Transfer{}, payload, digest.MustLookup(digest.SHA256))
	require.NoError(t, err)
	assert.Equal(t, fromDecoder, got.Digest)

	dynamicDigest, err := client.Digest(payload, "ledger.Transfer")
	require.NoError(t, err)
	assert.Equal(t, dynamicDigest, got.Digest)

	assert.Equal(t, uint64(42), got.Nonce)
	assert.Equal(t, "rent", got.Memo)
	assert.Equal(t, int64(-7), got.Delta)
	assert.Len(t, got.Outputs, 2)

	t.Run("nonce without critical flag", func(t *testing.T) {
		flipped := append([]byte{0x25}, payload[1:]...)
		err := wire.Decode(&Transfer{}, flipped, nil)
		require.ErrorIs(t, err, wire.ErrInvalidEncoding)
	})
}

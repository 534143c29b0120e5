package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for artifacts.
// Canonical key ordering keeps output byte-identical across runs.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for artifacts.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// encode marshals v as JSON or CBOR.
func encode(v any, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingCBOR:
		return encMode.Marshal(v)
	case EncodingJSON, "":
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("encoding %q is not a data encoding", enc)
	}
}

// Decode reads a JSON or CBOR artifact into v. JSON is recognised by its
// leading brace.
func Decode(data []byte, v any) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(data, v)
	}
	return decMode.Unmarshal(data, v)
}

// Kind returns the kind field of an encoded artifact.
func Kind(data []byte) (string, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := Decode(data, &probe); err != nil {
		return "", fmt.Errorf("decode artifact header: %w", err)
	}
	if probe.Kind == "" {
		return "", fmt.Errorf("artifact has no kind")
	}
	return probe.Kind, nil
}

package hydrology

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

// decodeBody unmarshals a request body, turning JSON errors into validation
// errors so callers answer them with 400.
func decodeBody(body []byte, dst any) error {
	if len(body) == 0 {
		return &domain.ValidationError{Message: "Request body is empty."}
	}
	err := json.Unmarshal(body, dst)
	if err == nil || errors.Is(err, domain.ErrValidation) {
		return err
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &domain.ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value)}
	}
	return &domain.ValidationError{Message: "JSON parse error - " + err.Error()}
}

// mergePatch overlays the top-level keys of patch onto the wire form of
// stored. Keys listed in drop are removed from the stored side first unless
// the patch sets them itself.
func mergePatch(stored any, patch []byte, drop ...string) ([]byte, error) {
	base, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode stored record: %w", err)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	var changes map[string]json.RawMessage
	if err := decodeBody(patch, &changes); err != nil {
		return nil, err
	}
	for _, key := range drop {
		if _, ok := changes[key]; !ok {
			delete(merged, key)
		}
	}
	for k, v := range changes {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// patchTouches reports whether a PATCH body sets key.
func patchTouches(patch []byte, key string) bool {
	var changes map[string]json.RawMessage
	if json.Unmarshal(patch, &changes) != nil {
		return false
	}
	_, ok := changes[key]
	return ok
}

package relay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eleven-am/coach/internal/domain"
)

// Kind tags an opaque identifier with the entity it belongs to. The wire form
// is "KIND-<numeric id>". Decoding fails loudly on a tag mismatch instead of
// blindly stripping a prefix.
type Kind string

const (
	KindCategory         Kind = "CATEGORY"
	KindExercise         Kind = "EXERCISE"
	KindUser             Kind = "USER"
	KindTemplate         Kind = "TEMPLATE"
	KindTemplateExercise Kind = "TEMPLATE-EXERCISES"
	KindUserDetails      Kind = "USER-DETAILS"
	KindVariable         Kind = "EXERCISE-VARIABLES"
	KindTraining         Kind = "TRAINING"
	KindTrainingExercise Kind = "TRAINING-EXERCISES"
)

// EncodeID produces the external form of a row identifier.
func EncodeID(kind Kind, id int64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}

// DecodeID extracts the numeric id from an encoded identifier. An empty input
// decodes to (0, nil) so optional references stay optional. A missing or
// foreign prefix, or a non-numeric payload, is an invalid argument.
func DecodeID(kind Kind, encoded string) (int64, error) {
	if encoded == "" {
		return 0, nil
	}

	prefix := string(kind) + "-"
	rest, ok := strings.CutPrefix(encoded, prefix)
	if !ok {
		return 0, domain.NewError("decode_id", string(kind),
			fmt.Errorf("%w: malformed id %q", domain.ErrInvalidArgument, encoded))
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, domain.NewError("decode_id", string(kind),
			fmt.Errorf("%w: malformed id %q", domain.ErrInvalidArgument, encoded))
	}

	return id, nil
}

// MustDecodeID is DecodeID for identifiers the caller has already validated.
// It panics on malformed input and is only used in tests.
func MustDecodeID(kind Kind, encoded string) int64 {
	id, err := DecodeID(kind, encoded)
	if err != nil {
		panic(err)
	}
	return id
}

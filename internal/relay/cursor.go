package relay

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/eleven-am/coach/internal/domain"
)

// Cursors are absolute row ids in base64, which keeps pages stable under
// concurrent insertion. Decoding validates both the base64 envelope and the
// numeric payload.

// EncodeCursor produces the cursor for a row id.
func EncodeCursor(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeCursor extracts the row id from a cursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domain.NewError("decode_cursor", "",
			fmt.Errorf("%w: malformed cursor %q", domain.ErrInvalidArgument, cursor))
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, domain.NewError("decode_cursor", "",
			fmt.Errorf("%w: malformed cursor %q", domain.ErrInvalidArgument, cursor))
	}

	return id, nil
}

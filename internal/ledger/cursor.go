package ledger

import (
	"encoding/base64"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

const cursorPrefix = "seq:"

func encodeSequenceCursor(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(seq, 10)))
}

func decodeSequenceCursor(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || !strings.HasPrefix(string(decoded), cursorPrefix) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(string(decoded), cursorPrefix), 10, 64)
	if err != nil || seq < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	return seq, nil
}

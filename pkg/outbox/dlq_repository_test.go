package outbox

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

func TestDLQInsertTruncatesLongErrors(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewDLQRepository(client.DB())
	msg := strings.Repeat("é", maxDLQErrorLen)

	require.Error(t, repo.InsertTx(nil, models.OutboxDLQ{}))

	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventGrnPosted,
		AggregateType: enums.AggregateGrn,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  5,
	}
	require.NoError(t, repo.InsertTx(client.DB(), entry))

	var stored models.OutboxDLQ
	require.NoError(t, client.DB().Where("event_id = ?", entry.EventID).First(&stored).Error)
	require.NotNil(t, stored.ErrorMessage)
	require.LessOrEqual(t, len(*stored.ErrorMessage), maxDLQErrorLen)
	require.True(t, utf8.ValidString(*stored.ErrorMessage))
}

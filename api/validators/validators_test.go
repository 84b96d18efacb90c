package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

type lineRequest struct {
	Quantity decimal.Decimal  `json:"quantity" validate:"dec_gt0"`
	Rate     *decimal.Decimal `json:"rate" validate:"omitempty,dec_gte0"`
}

type orderRequest struct {
	VendorID string        `json:"vendorId" validate:"required"`
	Items    []lineRequest `json:"items" validate:"required,min=1,dive"`
}

func postJSON(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyAcceptsStringAndNumberDecimals(t *testing.T) {
	var req orderRequest
	err := DecodeJSONBody(postJSON(`{"vendorId":"v1","items":[{"quantity":"2.5","rate":40},{"quantity":1}]}`), &req)
	require.NoError(t, err)
	require.True(t, req.Items[0].Quantity.Equal(decimal.RequireFromString("2.5")))
	require.True(t, req.Items[0].Rate.Equal(decimal.NewFromInt(40)))
	require.Nil(t, req.Items[1].Rate)
}

func TestDecodeJSONBodyReportsDecimalFieldPaths(t *testing.T) {
	var req orderRequest
	err := DecodeJSONBody(postJSON(`{"vendorId":"v1","items":[{"quantity":"0"},{"quantity":"3","rate":"-1"}]}`), &req)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be a decimal greater than zero", details["items[0].quantity"])
	require.Equal(t, "must be a non-negative decimal", details["items[1].rate"])
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	var req orderRequest
	err := DecodeJSONBody(postJSON(`{"vendorId":"v1","items":[{"quantity":"1"}],"discount":"5"}`), &req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = orderRequest{}
	err = DecodeJSONBody(postJSON(`{"vendorId":"v1","items":[{"quantity":"1"}]}{"vendorId":"v2"}`), &req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyEnforcesSizeLimit(t *testing.T) {
	var req orderRequest
	body := `{"vendorId":"` + strings.Repeat("x", MaxBodyBytes) + `","items":[{"quantity":"1"}]}`
	err := DecodeJSONBody(postJSON(body), &req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Contains(t, err.Error(), "too large")
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?threshold=12.5&bad=-3", nil)

	got, err := ParseQueryDecimal(r, "threshold")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("12.5")))

	got, err = ParseQueryDecimal(r, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = ParseQueryDecimal(r, "bad")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeOptional(t *testing.T) {
	blank := "   "
	require.Nil(t, SanitizeOptional(&blank, 10))
	require.Nil(t, SanitizeOptional(nil, 10))

	long := "  cement délivery  "
	got := SanitizeOptional(&long, 8)
	require.Equal(t, "cement d", *got)
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"metas/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return ValidCNPJ(fl.Field().String())
	})
	return v
}

type (
	// goalRequest is the body of PUT /api/goals/{producerID}. Months are
	// keyed jan..dez in currency units; absent months count as zero.
	goalRequest struct {
		Year   int                    `json:"year" validate:"required,min=2000,max=2100"`
		Name   string                 `json:"name" validate:"max=120"`
		Months map[string]json.Number `json:"months" validate:"required,dive,keys,oneof=jan fev mar abr mai jun jul ago set out nov dez,endkeys,required"`
	}

	// computeRequest is the body of POST /api/escadinha/compute.
	computeRequest struct {
		Months []json.Number `json:"months" validate:"len=12,dive,required"`
	}

	// quoteRequest is the body of POST /api/quotes.
	quoteRequest struct {
		CNPJ       string      `json:"cnpj" validate:"required,cnpj"`
		ClientName string      `json:"client_name" validate:"required,max=200"`
		Branch     string      `json:"branch" validate:"required,max=80"`
		Insurer    string      `json:"insurer" validate:"required,max=80"`
		ProducerID string      `json:"producer_id" validate:"required,max=64"`
		Premium    json.Number `json:"premium" validate:"required"`
		Status     string      `json:"status" validate:"required,oneof=em_negociacao fechada perdida"`
		Date       string      `json:"date" validate:"required,datetime=2006-01-02"`
	}
)

// decodeJSON reads a single JSON object from the request body and runs the
// struct validator over it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return validate.Struct(dst)
}

// maxAmountBits bounds exponent-form numbers before they are expanded.
const maxAmountBits = 128

// plainDecimal rewrites exponent-form JSON numbers ("1e5", "2.5E-1") as
// plain decimals. Twelve fraction digits keep the half-up rounding of
// ParseDecimalToCents exact.
func plainDecimal(n json.Number) (string, error) {
	s := strings.TrimSpace(n.String())
	if !strings.ContainsAny(s, "eE") {
		return s, nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Num().BitLen() > maxAmountBits || r.Denom().BitLen() > maxAmountBits {
		return "", core.ErrInvalidAmount
	}
	return r.FloatString(12), nil
}

// parseAmount converts a JSON number in currency units to Money.
// Negative values are reported as ErrNegativeGoal.
func parseAmount(n json.Number) (core.Money, error) {
	s := strings.TrimSpace(n.String())
	if strings.HasPrefix(s, "-") {
		return core.Money{}, fmt.Errorf("%w: %s", core.ErrNegativeGoal, s)
	}
	s, err := plainDecimal(n)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %s", core.ErrInvalidAmount, n)
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %s", core.ErrInvalidAmount, s)
	}
	return core.Money{Cents: cents}, nil
}

func (req goalRequest) toGoal(producerID string) (core.MonthlyGoal, error) {
	g := core.MonthlyGoal{
		ProducerID:   sanitizeInput(producerID),
		ProducerName: sanitizeInput(req.Name),
		Year:         req.Year,
	}
	for key, raw := range req.Months {
		amount, err := parseAmount(raw)
		if err != nil {
			return core.MonthlyGoal{}, fmt.Errorf("%s: %w", key, err)
		}
		if err := g.SetMonth(key, amount); err != nil {
			return core.MonthlyGoal{}, err
		}
	}
	return g, nil
}

func (req computeRequest) toMonths() ([core.MonthsInYear]core.Money, error) {
	var months [core.MonthsInYear]core.Money
	for i, raw := range req.Months {
		amount, err := parseAmount(raw)
		if err != nil {
			return months, fmt.Errorf("%s: %w", core.MonthKeys[i], err)
		}
		months[i] = amount
	}
	return months, nil
}

func (req quoteRequest) toQuote() (core.Quote, error) {
	premium, err := plainDecimal(req.Premium)
	var cents int64
	if err == nil {
		cents, err = core.ParseDecimalToCents(premium)
	}
	if err != nil {
		return core.Quote{}, fmt.Errorf("%w: %s", core.ErrInvalidPremium, req.Premium)
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return core.Quote{}, fmt.Errorf("%w: date %q", errBadRequest, req.Date)
	}
	return core.Quote{
		CNPJ:       req.CNPJ,
		ClientName: sanitizeInput(req.ClientName),
		Branch:     sanitizeInput(req.Branch),
		Insurer:    sanitizeInput(req.Insurer),
		ProducerID: sanitizeInput(req.ProducerID),
		Premium:    core.Money{Cents: cents},
		Status:     core.QuoteStatus(req.Status),
		Date:       date,
	}, nil
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if key == "" {
			key = fe.StructField()
		}
		if fe.Param() != "" {
			out[key] = fe.Tag() + "=" + fe.Param()
		} else {
			out[key] = fe.Tag()
		}
	}
	return out
}

// ValidCNPJ checks the length and both check digits of a CNPJ. Punctuation
// is ignored.
func ValidCNPJ(cnpj string) bool {
	digits := core.NormalizeCNPJ(cnpj)
	if len(digits) != 14 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 14 {
		return false
	}
	check := func(n int) byte {
		weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(digits[i]-'0') * weights[i]
		}
		rem := sum % 11
		if rem < 2 {
			return '0'
		}
		return byte('0' + 11 - rem)
	}
	return digits[12] == check(12) && digits[13] == check(13)
}
